package rules

import "testing"

func TestFingerprintStableAcrossShapes(t *testing.T) {
	// A bare array and the equivalent wrapped shape normalize to the same
	// stored form, so they share a fingerprint.
	bare := `[{"field":"genre","op":"is","value":"Drama"}]`
	wrapped := `{"conditions":[{"field":"genre","op":"is","value":"Drama"}],"match":"all"}`

	if Fingerprint(bare) != Fingerprint(wrapped) {
		t.Errorf("equivalent rules should share a fingerprint: %s vs %s", Fingerprint(bare), Fingerprint(wrapped))
	}
}

func TestFingerprintIgnoresBlankRows(t *testing.T) {
	with := `{"conditions":[{"field":"group","op":"eq","value":"News"},{"field":"name","op":"eq","value":""}],"match":"any"}`
	without := `{"conditions":[{"field":"group","op":"eq","value":"News"}],"match":"any"}`

	if Fingerprint(with) != Fingerprint(without) {
		t.Error("blank rows must not affect the fingerprint")
	}
}

func TestFingerprintDistinguishesMatchMode(t *testing.T) {
	anyMode := `{"conditions":[{"field":"group","op":"eq","value":"News"},{"field":"hd","op":"eq","value":"true"}],"match":"any"}`
	allMode := `{"conditions":[{"field":"group","op":"eq","value":"News"},{"field":"hd","op":"eq","value":"true"}],"match":"all"}`

	if Fingerprint(anyMode) == Fingerprint(allMode) {
		t.Error("match mode is semantic and must change the fingerprint")
	}
}

func TestFingerprintMalformedEqualsEmpty(t *testing.T) {
	if Fingerprint("{broken") != Fingerprint("") {
		t.Error("malformed rules degrade to the empty rule set and its fingerprint")
	}
}
