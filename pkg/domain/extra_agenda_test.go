// Copyright 2026 Simperby Authors

package domain

import (
	"testing"

	"github.com/simperby-go/simperby/pkg/crypto"
)

func TestNewTxReport_AssignsDistinctReportIDs(t *testing.T) {
	reporter, _ := crypto.GenerateKeyPairFromSeed([]byte("reporter"))

	a := NewTxReport(reporter, "evidence-a")
	b := NewTxReport(reporter, "evidence-b")

	if a.ReportID == "" || b.ReportID == "" {
		t.Fatal("expected NewTxReport to assign a non-empty ReportID")
	}
	if a.ReportID == b.ReportID {
		t.Error("expected two independent reports to get distinct ReportIDs")
	}
	if a.Reporter != reporter {
		t.Error("expected Reporter to be set to the given key")
	}
}

func TestTxReport_CanonicalEncodeCoversReportID(t *testing.T) {
	reporter, _ := crypto.GenerateKeyPairFromSeed([]byte("reporter"))

	a := TxReport{ReportID: "one", Reporter: reporter, Payload: "same-payload"}
	b := TxReport{ReportID: "two", Reporter: reporter, Payload: "same-payload"}

	if a.ToHash256() == b.ToHash256() {
		t.Error("expected distinct ReportIDs to produce distinct hashes")
	}
}
