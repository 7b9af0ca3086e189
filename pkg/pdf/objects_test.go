package pdf

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"testing"

	"golang.org/x/text/encoding/charmap"

	"github.com/novvoo/go-pdffixture/pkg/fixture"
)

// TestInteger tests Integer type
func TestInteger(t *testing.T) {
	i := Integer(42)

	if int(i) != 42 {
		t.Errorf("Expected 42, got %d", i)
	}

	if i.Type() != ObjInteger {
		t.Error("Expected ObjInteger type")
	}

	if i.String() != "42" {
		t.Errorf("Expected '42', got '%s'", i.String())
	}
}

// TestReal tests Real type
func TestReal(t *testing.T) {
	r := Real(3.14)

	if float64(r) != 3.14 {
		t.Errorf("Expected 3.14, got %f", r)
	}

	if r.Type() != ObjReal {
		t.Error("Expected ObjReal type")
	}
}

// TestBoolean tests Boolean type
func TestBoolean(t *testing.T) {
	b := Boolean(true)

	if !bool(b) {
		t.Error("Expected true")
	}

	if b.Type() != ObjBoolean {
		t.Error("Expected ObjBoolean type")
	}

	if b.String() != "true" {
		t.Errorf("Expected 'true', got '%s'", b.String())
	}

	b = Boolean(false)
	if bool(b) {
		t.Error("Expected false")
	}

	if b.String() != "false" {
		t.Errorf("Expected 'false', got '%s'", b.String())
	}
}

// TestName tests Name type
func TestName(t *testing.T) {
	n := Name("Test")

	if string(n) != "Test" {
		t.Errorf("Expected 'Test', got '%s'", n)
	}

	if n.Type() != ObjName {
		t.Error("Expected ObjName type")
	}

	if n.String() != "/Test" {
		t.Errorf("Expected '/Test', got '%s'", n.String())
	}
}

// TestString tests String type
func TestString(t *testing.T) {
	s := String{Value: []byte("Hello"), IsHex: false}

	if string(s.Value) != "Hello" {
		t.Errorf("Expected 'Hello', got '%s'", s.Value)
	}

	if s.IsHex {
		t.Error("Expected IsHex to be false")
	}

	if s.Type() != ObjString {
		t.Error("Expected ObjString type")
	}

	// Test hex string
	hexStr := String{Value: []byte{0xAB, 0xCD}, IsHex: true}
	if !hexStr.IsHex {
		t.Error("Expected IsHex to be true")
	}
}

// TestStringText tests String.Text method
func TestStringText(t *testing.T) {
	// Test regular string
	s := String{Value: []byte("Hello")}
	if s.Text() != "Hello" {
		t.Errorf("Expected 'Hello', got '%s'", s.Text())
	}

	// Test UTF-16BE with BOM
	utf16 := String{Value: []byte{0xFE, 0xFF, 0x00, 'H', 0x00, 'i'}}
	text := utf16.Text()
	if text != "Hi" {
		t.Errorf("Expected 'Hi', got '%s'", text)
	}
}

// TestArray tests Array type
func TestArray(t *testing.T) {
	arr := Array{Integer(1), Integer(2), Integer(3)}

	if len(arr) != 3 {
		t.Errorf("Expected length 3, got %d", len(arr))
	}

	if arr[0].(Integer) != 1 {
		t.Errorf("Expected first element to be 1")
	}

	if arr.Type() != ObjArray {
		t.Error("Expected ObjArray type")
	}
}

// TestDictionary tests Dictionary type
func TestDictionary(t *testing.T) {
	dict := Dictionary{
		Name("Type"):  Name("Test"),
		Name("Value"): Integer(42),
	}

	if dict.Type() != ObjDictionary {
		t.Error("Expected ObjDictionary type")
	}

	// Test Get
	val := dict.Get("Type")
	if val == nil {
		t.Error("Expected to get Type")
	}

	name, ok := val.(Name)
	if !ok || string(name) != "Test" {
		t.Error("Expected Type to be Name('Test')")
	}

	// Test GetName
	nameVal, ok := dict.GetName("Type")
	if !ok || string(nameVal) != "Test" {
		t.Error("Expected GetName to return 'Test'")
	}

	// Test GetInt
	intVal, ok := dict.GetInt("Value")
	if !ok || intVal != 42 {
		t.Error("Expected GetInt to return 42")
	}

	// Test non-existent key
	val = dict.Get("NonExistent")
	if val != nil {
		t.Error("Expected nil for non-existent key")
	}
}

// TestDictionaryGetArray tests Dictionary.GetArray
func TestDictionaryGetArray(t *testing.T) {
	dict := Dictionary{
		Name("Array"): Array{Integer(1), Integer(2), Integer(3)},
	}

	arr, ok := dict.GetArray("Array")
	if !ok {
		t.Error("Expected to get array")
	}

	if len(arr) != 3 {
		t.Errorf("Expected array length 3, got %d", len(arr))
	}
}

// TestDictionaryGetDict tests Dictionary.GetDict
func TestDictionaryGetDict(t *testing.T) {
	innerDict := Dictionary{
		Name("Inner"): Integer(1),
	}
	dict := Dictionary{
		Name("Dict"): innerDict,
	}

	d, ok := dict.GetDict("Dict")
	if !ok {
		t.Error("Expected to get dictionary")
	}

	val, ok := d.GetInt("Inner")
	if !ok || val != 1 {
		t.Error("Expected Inner to be 1")
	}
}

// TestReference tests Reference type
func TestReference(t *testing.T) {
	ref := Reference{ObjectNumber: 1, GenerationNumber: 0}

	if ref.ObjectNumber != 1 {
		t.Errorf("Expected ObjectNumber 1, got %d", ref.ObjectNumber)
	}

	if ref.GenerationNumber != 0 {
		t.Errorf("Expected GenerationNumber 0, got %d", ref.GenerationNumber)
	}

	if ref.Type() != ObjReference {
		t.Error("Expected ObjReference type")
	}

	if ref.String() != "1 0 R" {
		t.Errorf("Expected '1 0 R', got '%s'", ref.String())
	}
}

// TestNull tests Null type
func TestNull(t *testing.T) {
	n := Null{}

	if n.Type() != ObjNull {
		t.Error("Expected ObjNull type")
	}

	if n.String() != "null" {
		t.Errorf("Expected 'null', got '%s'", n.String())
	}
}

// TestStream tests Stream type
func TestStream(t *testing.T) {
	stream := Stream{
		Dictionary: Dictionary{
			Name("Length"): Integer(5),
		},
		Data: []byte("Hello"),
	}

	if len(stream.Data) != 5 {
		t.Errorf("Expected data length 5, got %d", len(stream.Data))
	}

	if stream.Type() != ObjStream {
		t.Error("Expected ObjStream type")
	}

	length, ok := stream.Dictionary.GetInt("Length")
	if !ok || length != 5 {
		t.Error("Expected Length to be 5")
	}
}

// TestStreamDecode tests Stream.Decode without filters
func TestStreamDecode(t *testing.T) {
	stream := Stream{
		Dictionary: Dictionary{
			Name("Length"): Integer(5),
		},
		Data: []byte("Hello"),
	}

	decoded, err := stream.Decode()
	if err != nil {
		t.Errorf("Decode failed: %v", err)
	}

	if string(decoded) != "Hello" {
		t.Errorf("Expected 'Hello', got '%s'", decoded)
	}
}

// TestStreamDecodeFlate tests Stream.Decode with FlateDecode
func TestStreamDecodeFlate(t *testing.T) {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	w.Write([]byte("BT /F1 12 Tf ET"))
	w.Close()

	stream := Stream{
		Dictionary: Dictionary{Name("Filter"): Name("FlateDecode")},
		Data:       buf.Bytes(),
	}

	decoded, err := stream.Decode()
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if string(decoded) != "BT /F1 12 Tf ET" {
		t.Errorf("Expected content stream, got '%s'", decoded)
	}
}

// TestStreamDecodeUnsupported tests that unknown filters are reported
func TestStreamDecodeUnsupported(t *testing.T) {
	stream := Stream{
		Dictionary: Dictionary{Name("Filter"): Array{Name("LZWDecode")}},
		Data:       []byte{0x80},
	}

	if _, err := stream.Decode(); err == nil {
		t.Error("Expected error for LZWDecode")
	}
}

// TestNumber tests numeric conversion of objects
func TestNumber(t *testing.T) {
	tests := []struct {
		obj      Object
		expected float64
		ok       bool
	}{
		{Integer(42), 42.0, true},
		{Real(3.14), 3.14, true},
		{Name("test"), 0.0, false},
		{Null{}, 0.0, false},
	}

	for _, tt := range tests {
		result, ok := Number(tt.obj)
		if ok != tt.ok || result != tt.expected {
			t.Errorf("Number(%s) = %f, %v, expected %f, %v", tt.obj, result, ok, tt.expected, tt.ok)
		}
	}
}

// TestStringTextLatin1 tests that bytes above 0x7F decode as ISO-8859-1
func TestStringTextLatin1(t *testing.T) {
	s := String{Value: []byte{'C', 'a', 'f', 0xE9}}
	if s.Text() != "Caf\u00e9" {
		t.Errorf("Expected 'Caf\u00e9', got '%s'", s.Text())
	}
}

// TestStringEscaping tests that literal strings round-trip through String()
func TestStringEscaping(t *testing.T) {
	s := String{Value: []byte("a(b)\\c")}
	if s.String() != `(a\(b\)\\c)` {
		t.Errorf("Unexpected literal: %s", s.String())
	}

	obj, err := NewParserFromBytes([]byte(s.String())).ParseObject()
	if err != nil {
		t.Fatalf("ParseObject failed: %v", err)
	}
	if string(obj.(String).Value) != string(s.Value) {
		t.Errorf("Round trip changed value: %q", obj.(String).Value)
	}
}

// TestDictionaryString tests that keys are rendered in sorted order
func TestDictionaryString(t *testing.T) {
	dict := Dictionary{
		Name("Type"):  Name("Page"),
		Name("Count"): Integer(1),
		Name("Kids"):  Array{Reference{ObjectNumber: 3}},
	}

	expected := "<</Count 1 /Kids [3 0 R] /Type /Page>>"
	if dict.String() != expected {
		t.Errorf("Expected '%s', got '%s'", expected, dict.String())
	}
}

// fixtureObject parses indirect object num straight from the fixture bytes
func fixtureObject(t *testing.T, num int) Object {
	t.Helper()
	data, err := fixture.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	idx := bytes.Index(data, []byte(fmt.Sprintf("\n%d 0 obj", num)))
	if idx < 0 {
		t.Fatalf("object %d not found in fixture", num)
	}
	got, _, obj, err := NewParserFromBytes(data[idx+1:]).ParseIndirectObject()
	if err != nil {
		t.Fatalf("object %d: %v", num, err)
	}
	if got != num {
		t.Fatalf("Expected object %d, got %d", num, got)
	}
	return obj
}

// TestFixtureObjectDictionaries tests the fixture's dictionaries as parsed
func TestFixtureObjectDictionaries(t *testing.T) {
	stream, ok := fixtureObject(t, 4).(Stream)
	if !ok {
		t.Fatal("Expected object 4 to be a stream")
	}
	if s := stream.Dictionary.String(); s != "<</Length 200>>" {
		t.Errorf("Unexpected stream dictionary %s", s)
	}
	// the declared length is wrong, so the data runs to endstream
	if len(stream.Data) == 200 {
		t.Error("Stream data should not be cut at the declared /Length")
	}

	font := fixtureObject(t, 5)
	if s := font.String(); s != "<</BaseFont /Helvetica /Subtype /Type1 /Type /Font>>" {
		t.Errorf("Unexpected font dictionary %s", s)
	}

	page, ok := fixtureObject(t, 3).(Dictionary)
	if !ok {
		t.Fatal("Expected object 3 to be a dictionary")
	}
	resources, ok := page.GetDict("Resources")
	if !ok {
		t.Fatal("Expected inline Resources dictionary")
	}
	fonts, ok := resources.GetDict("Font")
	if !ok {
		t.Fatal("Expected Font resources")
	}
	if ref := fonts.Get("F1"); ref != (Reference{ObjectNumber: 5}) {
		t.Errorf("Expected F1 to be 5 0 R, got %v", ref)
	}
	box, _ := page.GetArray("MediaBox")
	if box.String() != "[0 0 612 792]" {
		t.Errorf("Unexpected MediaBox %s", box)
	}
}

// TestFixtureStringsDecodeAsLatin1 tests String.Text on the fixture's
// content strings and on the same line encoded with a non-ASCII name
func TestFixtureStringsDecodeAsLatin1(t *testing.T) {
	stream := fixtureObject(t, 4).(Stream)
	ops, err := NewContentStreamParser(stream.Data).ParseOperations()
	if err != nil {
		t.Fatalf("ParseOperations failed: %v", err)
	}

	var shown []string
	for _, op := range ops {
		if op.Operator == "Tj" {
			shown = append(shown, op.Operands[0].(String).Text())
		}
	}
	if len(shown) != 9 {
		t.Fatalf("Expected 9 strings, got %d", len(shown))
	}
	if shown[2] != "john.doe@email.com | (555) 123-4567" {
		t.Errorf("Nested parentheses not kept: %q", shown[2])
	}

	latin1, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte("(José Doë) Tj"))
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	ops, err = NewContentStreamParser(latin1).ParseOperations()
	if err != nil {
		t.Fatalf("ParseOperations failed: %v", err)
	}
	if got := ops[0].Operands[0].(String).Text(); got != "José Doë" {
		t.Errorf("Expected 'José Doë', got %q", got)
	}
}
