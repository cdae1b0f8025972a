package token

import (
	"testing"
)

func TestCreateToken(t *testing.T) {
	tests := []struct {
		name      string
		tokenType TokenType
		line      int32
		column    int
		want      Token
	}{
		{
			name:      "Create ASSIGN token",
			tokenType: ASSIGN,
			line:      1,
			column:    4,
			want:      Token{TokenType: ASSIGN, Lexeme: "=", Line: 1, Column: 4},
		},
		{
			name:      "Create MULT token",
			tokenType: MULT,
			line:      2,
			column:    0,
			want:      Token{TokenType: MULT, Lexeme: "*", Line: 2, Column: 0},
		},
		{
			name:      "Create ARROW token",
			tokenType: ARROW,
			line:      0,
			column:    9,
			want:      Token{TokenType: ARROW, Lexeme: "->", Line: 0, Column: 9},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CreateToken(tt.tokenType, tt.line, tt.column)
			if got != tt.want {
				t.Errorf("CreateToken() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCreateLiteralToken(t *testing.T) {
	got := CreateLiteralToken(INT, int64(42), "42", 3, 1)
	want := Token{TokenType: INT, Lexeme: "42", Literal: int64(42), Line: 3, Column: 1}
	if got != want {
		t.Errorf("CreateLiteralToken() = %v, want %v", got, want)
	}
}

func TestKeyWordsCoverage(t *testing.T) {
	for _, kw := range []string{"fn", "class", "if", "else", "elif", "for", "while",
		"var", "return", "print", "true", "false", "nil", "and", "or", "in",
		"super", "this", "range", "attempt", "handle", "parallel", "concurrent",
		"async", "await", "import", "match", "default"} {
		if _, ok := KeyWords[kw]; !ok {
			t.Errorf("expected %q to be a registered keyword", kw)
		}
	}
}

func TestTypeNamesCoverage(t *testing.T) {
	for _, name := range []string{"int", "i8", "i64", "uint", "u64", "float", "f64", "str", "bool", "list", "dict", "any"} {
		if !TypeNames[name] {
			t.Errorf("expected %q to be a registered type name", name)
		}
	}
}
