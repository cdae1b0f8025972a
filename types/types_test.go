package types

import "testing"

func TestFromAnnotation(t *testing.T) {
	tests := []struct {
		annotation string
		wantTag    Tag
	}{
		{"", Any},
		{"int", Int},
		{"float", Float64},
		{"string", String},
		{"bool", Bool},
		{"Animal", UserDefined},
	}

	for _, tt := range tests {
		got := FromAnnotation(tt.annotation)
		if got.Tag != tt.wantTag {
			t.Errorf("FromAnnotation(%q).Tag = %s, want %s", tt.annotation, got.Tag, tt.wantTag)
		}
	}
}

func TestCanConvert(t *testing.T) {
	intType := Simple(Int)
	floatType := Simple(Float64)
	stringType := Simple(String)
	anyType := Simple(Any)

	if !CanConvert(intType, floatType) {
		t.Error("expected Int to convert to Float64")
	}
	if CanConvert(intType, stringType) {
		t.Error("did not expect Int to convert to String")
	}
	if !CanConvert(stringType, anyType) {
		t.Error("expected String to convert to Any")
	}
}

func TestGetCommonType(t *testing.T) {
	intType := Simple(Int)
	floatType := Simple(Float64)

	common, err := GetCommonType(intType, floatType)
	if err != nil {
		t.Fatalf("GetCommonType returned error: %v", err)
	}
	if common != floatType {
		t.Errorf("GetCommonType(Int, Float64) = %s, want Float64", common)
	}

	_, err = GetCommonType(intType, Simple(String))
	if err == nil {
		t.Error("expected an error for incompatible types")
	}
}

func TestCheckType(t *testing.T) {
	listOfInts := NewList(Simple(Int))

	if !CheckType([]any{int64(1), int64(2)}, listOfInts) {
		t.Error("expected [1, 2] to satisfy List[Int]")
	}
	if CheckType([]any{"a"}, listOfInts) {
		t.Error("did not expect [\"a\"] to satisfy List[Int]")
	}
	if !CheckType("anything", Simple(Any)) {
		t.Error("expected Any to match any value")
	}
	if !CheckType(nil, Simple(Nil)) {
		t.Error("expected nil to satisfy Nil type")
	}
}
