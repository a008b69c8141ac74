package resp

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

// ============================================================
// Parse Tests
// ============================================================

func TestParse_Valid(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Element
	}{
		{"simple string", "+OK\r\n", SimpleString("OK")},
		{"empty simple string", "+\r\n", SimpleString("")},
		{"error", "-ERR boom\r\n", Error("ERR boom")},
		{"integer", ":1000\r\n", Integer(1000)},
		{"negative integer", ":-42\r\n", Integer(-42)},
		{"bulk string", "$5\r\nhello\r\n", BulkString("hello")},
		{"empty bulk string", "$0\r\n\r\n", BulkString("")},
		{"binary bulk string", "$4\r\na\r\nb\r\n", BulkString("a\r\nb")},
		{"null bulk string", "$-1\r\n", NullBulk()},
		{"empty array", "*0\r\n", Array()},
		{"null array", "*-1\r\n", NullArray()},
		{
			name:  "command array",
			input: "*3\r\n$4\r\nHSET\r\n$3\r\nfoo\r\n$3\r\nbar\r\n",
			want:  Command("HSET", "foo", "bar"),
		},
		{
			name:  "mixed nested array",
			input: "*3\r\n:1\r\n*2\r\n+a\r\n$-1\r\n*-1\r\n",
			want:  Array(Integer(1), Array(SimpleString("a"), NullBulk()), NullArray()),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, n, err := Parse([]byte(tt.input))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if n != len(tt.input) {
				t.Errorf("consumed = %d, want %d", n, len(tt.input))
			}
			if !got.Equal(tt.want) {
				t.Errorf("Parse() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestParse_NullIsNotEmpty(t *testing.T) {
	null, _, _ := Parse([]byte("$-1\r\n"))
	empty, _, _ := Parse([]byte("$0\r\n\r\n"))
	if !null.IsNull() {
		t.Error("$-1 should decode to a null bulk string")
	}
	if empty.IsNull() {
		t.Error("$0 should decode to a non-null empty bulk string")
	}
	if null.Equal(empty) {
		t.Error("null and empty bulk strings must differ")
	}

	nullArr, _, _ := Parse([]byte("*-1\r\n"))
	emptyArr, _, _ := Parse([]byte("*0\r\n"))
	if !nullArr.IsNull() || emptyArr.IsNull() {
		t.Error("null and empty arrays must be distinguishable")
	}
	if nullArr.Equal(emptyArr) {
		t.Error("null and empty arrays must differ")
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"unknown type byte", "?what\r\n", ErrProtocol},
		{"inline command", "PING\r\n", ErrProtocol},
		{"non numeric integer", ":abc\r\n", ErrProtocol},
		{"integer overflow", ":99999999999999999999\r\n", ErrProtocol},
		{"bad bulk length", "$x\r\n", ErrProtocol},
		{"negative bulk length", "$-2\r\n", ErrProtocol},
		{"bad bulk terminator", "$3\r\nfooXY", ErrProtocol},
		{"negative array length", "*-5\r\n", ErrProtocol},
		{"bad element inside array", "*2\r\n:1\r\n!x\r\n", ErrProtocol},
		{"bulk too large", "$999999999999\r\n", ErrLimitExceeded},
		{"array too large", "*99999999\r\n", ErrLimitExceeded},
		{"line too long", "+" + strings.Repeat("a", MaxLineLen+1), ErrLimitExceeded},
		{"nesting too deep", strings.Repeat("*1\r\n", MaxDepth+1) + ":1\r\n", ErrLimitExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Parse([]byte(tt.input))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Parse() error = %v, want %v", err, tt.wantErr)
			}
			if !IsProtocolError(err) {
				t.Errorf("IsProtocolError(%v) = false, want true", err)
			}
		})
	}
}

func TestParse_Incomplete(t *testing.T) {
	inputs := []string{
		"",
		"+OK",
		"+OK\r",
		":12",
		"$5\r\nhel",
		"$5\r\nhello",
		"$5\r\nhello\r",
		"*2\r\n$3\r\nfoo\r\n",
		"*1\r\n",
	}

	for _, in := range inputs {
		t.Run(strings.ReplaceAll(in, "\r\n", "_"), func(t *testing.T) {
			_, n, err := Parse([]byte(in))
			if !errors.Is(err, ErrIncomplete) {
				t.Errorf("Parse(%q) error = %v, want ErrIncomplete", in, err)
			}
			if n != 0 {
				t.Errorf("Parse(%q) consumed %d bytes, want 0", in, n)
			}
		})
	}
}

func TestParse_DoesNotAliasInput(t *testing.T) {
	buf := []byte("$3\r\nfoo\r\n")
	e, _, err := Parse(buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	buf[4] = 'X'
	if string(e.Bulk) != "foo" {
		t.Errorf("bulk = %q after mutating input, want %q", e.Bulk, "foo")
	}
}

// ============================================================
// Decoder Tests
// ============================================================

func TestDecoder_Pipeline(t *testing.T) {
	var d Decoder
	d.Feed([]byte("*1\r\n$4\r\nPING\r\n*2\r\n$3\r\nGET\r\n$1\r\nk\r\n:7\r\n"))

	want := []Element{
		Command("PING"),
		Command("GET", "k"),
		Integer(7),
	}
	for i, w := range want {
		got, err := d.Next()
		if err != nil {
			t.Fatalf("Next() #%d error: %v", i, err)
		}
		if !got.Equal(w) {
			t.Errorf("Next() #%d = %s, want %s", i, got, w)
		}
	}

	if _, err := d.Next(); !errors.Is(err, ErrIncomplete) {
		t.Errorf("Next() on drained decoder error = %v, want ErrIncomplete", err)
	}
	if d.Buffered() != 0 {
		t.Errorf("Buffered() = %d, want 0", d.Buffered())
	}
}

func TestDecoder_SplitAtEveryBoundary(t *testing.T) {
	samples := []Element{
		SimpleString("OK"),
		Error("ERR something"),
		Integer(-123456789),
		BulkString("hello world"),
		BulkString(""),
		NullBulk(),
		NullArray(),
		Array(),
		Command("HSET", "foo", "bar", "baz"),
		Array(Integer(1), Array(BulkString("x"), NullBulk()), SimpleString("y")),
	}

	for _, sample := range samples {
		encoded := Encode(sample)
		for split := 0; split <= len(encoded); split++ {
			var d Decoder
			d.Feed(encoded[:split])
			got, err := d.Next()
			if split < len(encoded) {
				if !errors.Is(err, ErrIncomplete) {
					t.Fatalf("%s split %d: error = %v, want ErrIncomplete", sample, split, err)
				}
				d.Feed(encoded[split:])
				got, err = d.Next()
			}
			if err != nil {
				t.Fatalf("%s split %d: error = %v", sample, split, err)
			}
			if !got.Equal(sample) {
				t.Fatalf("%s split %d: got %s", sample, split, got)
			}
		}
	}
}

func TestDecoder_ByteAtATime(t *testing.T) {
	input := Encode(Command("SET", "key", "value"))
	input = append(input, Encode(Command("GET", "key"))...)

	var d Decoder
	var got []Element
	for _, b := range input {
		d.Feed([]byte{b})
		for {
			e, err := d.Next()
			if errors.Is(err, ErrIncomplete) {
				break
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got = append(got, e)
		}
	}

	if len(got) != 2 {
		t.Fatalf("decoded %d elements, want 2", len(got))
	}
	if !got[0].Equal(Command("SET", "key", "value")) || !got[1].Equal(Command("GET", "key")) {
		t.Errorf("decoded %v", got)
	}
}

func TestDecoder_ErrorLeavesInputUnconsumed(t *testing.T) {
	var d Decoder
	d.Feed([]byte("!bad\r\n"))
	if _, err := d.Next(); !errors.Is(err, ErrProtocol) {
		t.Fatalf("Next() error = %v, want ErrProtocol", err)
	}
	if d.Buffered() != 6 {
		t.Errorf("Buffered() = %d, want 6", d.Buffered())
	}
	d.Reset()
	if d.Buffered() != 0 {
		t.Errorf("Buffered() after Reset = %d, want 0", d.Buffered())
	}
}

func TestDecoder_LargeArrayInChunks(t *testing.T) {
	const pairs = 20000
	args := make([]string, 0, 2*pairs)
	for i := 0; i < pairs; i++ {
		args = append(args, fmt.Sprintf("key:%d", i), fmt.Sprintf("value:%d", i))
	}
	want := Command("MSET", args...)
	input := append(Encode(want), Encode(Command("PING"))...)

	var d Decoder
	var got []Element
	for off := 0; off < len(input); off += 4096 {
		d.Feed(input[off:min(off+4096, len(input))])
		for {
			e, err := d.Next()
			if errors.Is(err, ErrIncomplete) {
				break
			}
			if err != nil {
				t.Fatalf("Next() error = %v", err)
			}
			got = append(got, e)
		}
	}

	if len(got) != 2 {
		t.Fatalf("decoded %d elements, want 2", len(got))
	}
	if !got[0].Equal(want) {
		t.Error("MSET array decoded incorrectly")
	}
	if !got[1].Equal(Command("PING")) {
		t.Errorf("second element = %s, want PING", got[1])
	}
}

func TestDecoder_BadHeaderInsidePendingArray(t *testing.T) {
	var d Decoder
	d.Feed([]byte("*3\r\n$3\r\nGET\r\n"))
	if _, err := d.Next(); !errors.Is(err, ErrIncomplete) {
		t.Fatalf("Next() error = %v, want ErrIncomplete", err)
	}
	d.Feed([]byte("$-5\r\n"))
	if _, err := d.Next(); !errors.Is(err, ErrProtocol) {
		t.Errorf("Next() error = %v, want ErrProtocol", err)
	}
}
