package mft

import "testing"

func TestBuildStreamProducesDenseIndexStableSequence(t *testing.T) {
	image := make([]byte, 3*recordSize)

	buf := newRecordPrefix(56)
	buf, _ = appendResidentAttr(buf, AttrFileName, "", buildFileNameValue(5, "hello.txt"))
	record := finishRecord(buf)
	copy(image[recordSize:2*recordSize], record) // valid FILE record at index 1
	// index 0 and 2 stay all-zero: "absent"

	stream := BuildStream(image, 4096)

	if stream.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", stream.Len())
	}
	if stream.At(0) != nil {
		t.Errorf("expected record 0 to be absent")
	}
	if stream.At(1) == nil {
		t.Fatalf("expected record 1 to be present")
	}
	if stream.At(2) != nil {
		t.Errorf("expected record 2 to be absent")
	}
}

func TestBuildStreamRecordsWarningsForMalformedRecords(t *testing.T) {
	image := make([]byte, recordSize)
	copy(image[:4], recordMagic)
	// attrs_offset left at 0, which is < minAttrsOffset -> malformed.

	stream := BuildStream(image, 4096)

	if stream.At(0) != nil {
		t.Fatalf("expected malformed record to be absent")
	}
	if _, ok := stream.Warnings[0]; !ok {
		t.Fatalf("expected a warning recorded for record 0")
	}
}
