package mft

import "testing"

func TestAttributeTypeNameKnownCodes(t *testing.T) {
	cases := map[AttributeType]string{
		AttrStandardInformation: "STANDARD_INFO",
		AttrFileName:            "FILE_NAME",
		AttrData:                "DATA",
		AttrIndexRoot:           "INDEX_ROOT",
		AttrSymbolicLink:        "SYMLINK",
	}
	for typ, want := range cases {
		if got := typ.Name(); got != want {
			t.Errorf("%#x.Name() = %q, want %q", uint32(typ), got, want)
		}
	}
}

func TestAttributeTypeNameUnknownCode(t *testing.T) {
	typ := AttributeType(0xD0)
	got := typ.Name()
	if got != "unknown_0xd0" {
		t.Errorf("unknown type Name() = %q, want unknown_0xd0", got)
	}
}

func TestParseFileNameDecodesExactLength(t *testing.T) {
	value := buildFileNameValue(42, "résumé")
	parsed, err := ParseFileName(value)
	if err != nil {
		t.Fatalf("ParseFileName: %v", err)
	}
	if parsed.Name != "résumé" {
		t.Errorf("Name = %q, want résumé", parsed.Name)
	}
	if parsed.ParentRef != 42 {
		t.Errorf("ParentRef = %d, want 42", parsed.ParentRef)
	}
}

func TestParseFileNameRejectsTruncatedValue(t *testing.T) {
	_, err := ParseFileName(make([]byte, 10))
	if err == nil {
		t.Fatal("expected ErrAttributeOverflow for truncated FILE_NAME value")
	}
}

func TestValueMaterializeResidentDoesNotTouchReader(t *testing.T) {
	v := &Value{resident: true, bytes: []byte("abc")}
	got, err := v.Materialize(nil)
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if string(got) != "abc" {
		t.Errorf("got %q, want abc", got)
	}
}
