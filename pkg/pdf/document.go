package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"maps"
	"os"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

var (
	// ErrNotPDF is returned when the data lacks a %PDF- header.
	ErrNotPDF = errors.New("not a PDF file")
	// ErrNoTrailer is returned when neither a trailer nor a catalog can be found.
	ErrNoTrailer = errors.New("no trailer or catalog found")
)

// Document represents a PDF document
type Document struct {
	data      []byte
	Version   string
	Trailer   Dictionary
	Root      Dictionary
	Info      Dictionary
	Pages     []*Page
	StartXRef int64
	// Repaired is set when the object table was rebuilt by scanning the
	// file because the cross-reference data was missing or wrong.
	Repaired bool
	Warnings []string

	objects  map[int]Object
	xref     map[int]XRefEntry
	declared []XRefEntry
}

// XRefEntry is one entry of a classic cross-reference table
type XRefEntry struct {
	Number     int
	Offset     int64
	Generation int
	InUse      bool
}

// Page represents a PDF page
type Page struct {
	doc        *Document
	Dictionary Dictionary
	Number     int
	MediaBox   Rectangle
	Resources  Dictionary
}

// Rectangle represents a PDF rectangle
type Rectangle struct {
	LLX, LLY, URX, URY float64
}

// Width returns the width of the rectangle
func (r Rectangle) Width() float64 { return r.URX - r.LLX }

// Height returns the height of the rectangle
func (r Rectangle) Height() float64 { return r.URY - r.LLY }

// Open opens a PDF file
func Open(filename string) (*Document, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return NewDocument(data)
}

// NewDocument creates a new document from PDF data
func NewDocument(data []byte) (*Document, error) {
	doc := &Document{
		data:      data,
		StartXRef: -1,
		objects:   make(map[int]Object),
		xref:      make(map[int]XRefEntry),
	}

	if err := doc.parse(); err != nil {
		return nil, err
	}
	return doc, nil
}

// Close releases the document data
func (d *Document) Close() error {
	d.data = nil
	d.objects = nil
	return nil
}

// Size returns the length of the file in bytes
func (d *Document) Size() int {
	return len(d.data)
}

// NumPages returns the number of pages
func (d *Document) NumPages() int {
	return len(d.Pages)
}

// GetPage returns a page by its 1-based number
func (d *Document) GetPage(n int) (*Page, error) {
	if n < 1 || n > len(d.Pages) {
		return nil, fmt.Errorf("page %d out of range (1-%d)", n, len(d.Pages))
	}
	return d.Pages[n-1], nil
}

// Objects returns the numbers of all objects in use, in ascending order
func (d *Document) Objects() []int {
	var nums []int
	for num, e := range d.xref {
		if e.InUse && num > 0 {
			nums = append(nums, num)
		}
	}
	slices.Sort(nums)
	return nums
}

// XRefEntries returns the cross-reference table as declared in the file,
// before any repair.
func (d *Document) XRefEntries() []XRefEntry {
	return slices.Clone(d.declared)
}

func (d *Document) warn(format string, args ...any) {
	d.Warnings = append(d.Warnings, fmt.Sprintf(format, args...))
}

// parse parses the PDF document
func (d *Document) parse() error {
	if !bytes.HasPrefix(d.data, []byte("%PDF-")) {
		return ErrNotPDF
	}

	if idx := bytes.IndexAny(d.data, "\r\n"); idx > 0 {
		d.Version = strings.TrimSpace(string(d.data[5:idx]))
	}

	startxref, err := d.findStartXRef()
	if err != nil {
		d.warn("%v", err)
	} else {
		d.StartXRef = startxref
	}

	if table := d.locateXRefTable(); table >= 0 {
		if err := d.parseXRefTable(table); err != nil {
			d.warn("xref table at %d: %v", table, err)
		}
	}

	if d.Trailer == nil || !d.xrefConsistent() {
		if err := d.reconstruct(); err != nil {
			return err
		}
	}

	rootObj, err := d.ResolveObject(d.Trailer.Get("Root"))
	if err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	root, ok := rootObj.(Dictionary)
	if !ok {
		return fmt.Errorf("catalog is not a dictionary")
	}
	d.Root = root

	if infoObj, err := d.ResolveObject(d.Trailer.Get("Info")); err == nil {
		if info, ok := infoObj.(Dictionary); ok {
			d.Info = info
		}
	}

	return d.parsePages()
}

// findStartXRef finds the startxref position
func (d *Document) findStartXRef() (int64, error) {
	searchLen := min(1024, len(d.data))
	tail := d.data[len(d.data)-searchLen:]
	idx := bytes.LastIndex(tail, []byte("startxref"))
	if idx < 0 {
		return 0, fmt.Errorf("startxref not found")
	}

	start := idx + len("startxref")
	for start < len(tail) && isWhitespace(tail[start]) {
		start++
	}
	end := start
	for end < len(tail) && tail[end] >= '0' && tail[end] <= '9' {
		end++
	}

	offset, err := strconv.ParseInt(string(tail[start:end]), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid startxref offset")
	}
	return offset, nil
}

var xrefKeyword = regexp.MustCompile(`(?m)^xref[ \t]*\r?\n`)

// locateXRefTable returns the offset of the classic xref table, or -1.
// When startxref is wrong, the last table in the file is used.
func (d *Document) locateXRefTable() int64 {
	if d.StartXRef >= 0 && d.StartXRef < int64(len(d.data)) {
		pos := d.StartXRef
		for pos < int64(len(d.data)) && isWhitespace(d.data[pos]) {
			pos++
		}
		if bytes.HasPrefix(d.data[pos:], []byte("xref")) {
			return pos
		}
	}
	if d.StartXRef >= 0 {
		d.warn("startxref %d does not point to an xref table", d.StartXRef)
	}

	matches := xrefKeyword.FindAllIndex(d.data, -1)
	if len(matches) == 0 {
		d.warn("no xref table found")
		return -1
	}
	return int64(matches[len(matches)-1][0])
}

// parseXRefTable parses a classic xref table followed by its trailer
func (d *Document) parseXRefTable(offset int64) error {
	lexer := NewLexerFromBytes(d.data[offset:])

	// "xref"
	if _, err := lexer.ReadLine(); err != nil {
		return err
	}

	for {
		line, err := lexer.ReadLine()
		if err != nil {
			return fmt.Errorf("trailer not found")
		}

		lineStr := strings.TrimSpace(string(line))
		if lineStr == "" {
			continue
		}
		if strings.HasPrefix(lineStr, "trailer") {
			break
		}

		// subsection header: start count
		parts := strings.Fields(lineStr)
		if len(parts) != 2 {
			return fmt.Errorf("invalid subsection header %q", lineStr)
		}
		start, err1 := strconv.Atoi(parts[0])
		count, err2 := strconv.Atoi(parts[1])
		if err1 != nil || err2 != nil {
			return fmt.Errorf("invalid subsection header %q", lineStr)
		}

		for i := 0; i < count; i++ {
			entryLine, err := lexer.ReadLine()
			if err != nil {
				return fmt.Errorf("subsection %d: %w", start, err)
			}
			entry, err := parseXRefEntry(start+i, string(entryLine))
			if err != nil {
				return err
			}
			d.declared = append(d.declared, entry)
			if _, exists := d.xref[entry.Number]; !exists {
				d.xref[entry.Number] = entry
			}
		}
	}

	trailerObj, err := NewParser(lexer).ParseObject()
	if err != nil {
		return fmt.Errorf("trailer: %w", err)
	}
	trailer, ok := trailerObj.(Dictionary)
	if !ok {
		return fmt.Errorf("trailer is not a dictionary")
	}
	d.Trailer = trailer
	return nil
}

// parseXRefEntry parses "nnnnnnnnnn ggggg n"
func parseXRefEntry(num int, line string) (XRefEntry, error) {
	fields := strings.Fields(line)
	if len(fields) != 3 || (fields[2] != "n" && fields[2] != "f") {
		return XRefEntry{}, fmt.Errorf("invalid xref entry for object %d: %q", num, line)
	}
	offset, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return XRefEntry{}, fmt.Errorf("invalid xref offset for object %d: %q", num, line)
	}
	gen, err := strconv.Atoi(fields[1])
	if err != nil {
		return XRefEntry{}, fmt.Errorf("invalid xref generation for object %d: %q", num, line)
	}
	return XRefEntry{
		Number:     num,
		Offset:     offset,
		Generation: gen,
		InUse:      fields[2] == "n",
	}, nil
}

// xrefConsistent reports whether every in-use entry points at the header
// of its object.
func (d *Document) xrefConsistent() bool {
	ok := true
	for _, num := range slices.Sorted(maps.Keys(d.xref)) {
		e := d.xref[num]
		if !e.InUse || num == 0 {
			continue
		}
		if !d.objectHeaderAt(e.Offset, num, e.Generation) {
			d.warn("object %d: xref offset %d does not point to its header", num, e.Offset)
			ok = false
		}
	}
	return ok
}

var objectHeader = regexp.MustCompile(`^(\d+)[ \t\r\n]+(\d+)[ \t\r\n]+obj\b`)

func (d *Document) objectHeaderAt(offset int64, num, gen int) bool {
	if offset < 0 || offset >= int64(len(d.data)) {
		return false
	}
	m := objectHeader.FindSubmatch(d.data[offset:])
	return m != nil && string(m[1]) == strconv.Itoa(num) && string(m[2]) == strconv.Itoa(gen)
}

var (
	objectHeaders  = regexp.MustCompile(`(?m)^[ \t]*(\d+)[ \t]+(\d+)[ \t]+obj\b`)
	trailerKeyword = regexp.MustCompile(`(?m)^[ \t]*trailer\b`)
)

// reconstruct rebuilds the object table by scanning for object headers.
// Later definitions of the same object win, as with incremental updates.
func (d *Document) reconstruct() error {
	d.Repaired = true
	d.xref = make(map[int]XRefEntry)
	d.objects = make(map[int]Object)

	for _, m := range objectHeaders.FindAllSubmatchIndex(d.data, -1) {
		num, err1 := strconv.Atoi(string(d.data[m[2]:m[3]]))
		gen, err2 := strconv.Atoi(string(d.data[m[4]:m[5]]))
		if err1 != nil || err2 != nil {
			continue
		}
		d.xref[num] = XRefEntry{Number: num, Offset: int64(m[2]), Generation: gen, InUse: true}
	}
	if len(d.xref) == 0 {
		return fmt.Errorf("%w: no objects found", ErrNoTrailer)
	}

	if d.Trailer == nil {
		if matches := trailerKeyword.FindAllIndex(d.data, -1); len(matches) > 0 {
			last := matches[len(matches)-1]
			obj, err := NewParserFromBytes(d.data[last[1]:]).ParseObject()
			if dict, ok := obj.(Dictionary); err == nil && ok {
				d.Trailer = dict
			}
		}
	}

	if d.Trailer == nil || d.Trailer.Get("Root") == nil {
		root, ok := d.findCatalog()
		if !ok {
			return ErrNoTrailer
		}
		if d.Trailer == nil {
			d.Trailer = Dictionary{}
		}
		d.Trailer["Root"] = root
		d.warn("trailer rebuilt from catalog object %d", root.ObjectNumber)
	}
	return nil
}

func (d *Document) findCatalog() (Reference, bool) {
	for _, num := range slices.Sorted(maps.Keys(d.xref)) {
		obj, err := d.GetObject(num)
		if err != nil {
			continue
		}
		if dict, ok := obj.(Dictionary); ok {
			if t, _ := dict.GetName("Type"); t == "Catalog" {
				return Reference{ObjectNumber: num, GenerationNumber: d.xref[num].Generation}, true
			}
		}
	}
	return Reference{}, false
}

// ResolveObject resolves an object, following references
func (d *Document) ResolveObject(obj Object) (Object, error) {
	for range 32 {
		ref, ok := obj.(Reference)
		if !ok {
			if obj == nil {
				return Null{}, nil
			}
			return obj, nil
		}
		var err error
		if obj, err = d.GetObject(ref.ObjectNumber); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("reference chain too long")
}

// GetObject gets an object by number
func (d *Document) GetObject(objNum int) (Object, error) {
	if d.objects == nil {
		return nil, errors.New("document is closed")
	}
	if obj, ok := d.objects[objNum]; ok {
		return obj, nil
	}

	entry, ok := d.xref[objNum]
	if !ok || !entry.InUse {
		return Null{}, nil
	}
	if entry.Offset < 0 || entry.Offset >= int64(len(d.data)) {
		return nil, fmt.Errorf("object %d: offset %d out of range", objNum, entry.Offset)
	}

	num, _, obj, err := NewParserFromBytes(d.data[entry.Offset:]).ParseIndirectObject()
	if err != nil {
		return nil, fmt.Errorf("object %d: %w", objNum, err)
	}
	if num != objNum {
		return nil, fmt.Errorf("object %d: found object %d at offset %d", objNum, num, entry.Offset)
	}

	d.objects[objNum] = obj
	return obj, nil
}

// parsePages walks the page tree
func (d *Document) parsePages() error {
	pagesObj, err := d.ResolveObject(d.Root.Get("Pages"))
	if err != nil {
		return fmt.Errorf("page tree: %w", err)
	}
	pages, ok := pagesObj.(Dictionary)
	if !ok {
		return fmt.Errorf("page tree root is not a dictionary")
	}

	visited := make(map[int]bool)
	if ref, ok := d.Root.Get("Pages").(Reference); ok {
		visited[ref.ObjectNumber] = true
	}
	if err := d.walkPages(pages, inherited{}, visited); err != nil {
		return err
	}

	if count, ok := pages.GetInt("Count"); ok && int(count) != len(d.Pages) {
		d.warn("page tree declares %d pages, found %d", count, len(d.Pages))
	}
	return nil
}

// inherited holds the page attributes passed down the page tree
type inherited struct {
	mediaBox  Object
	resources Object
}

func (d *Document) walkPages(node Dictionary, attrs inherited, visited map[int]bool) error {
	if mb := node.Get("MediaBox"); mb != nil {
		attrs.mediaBox = mb
	}
	if res := node.Get("Resources"); res != nil {
		attrs.resources = res
	}

	if t, _ := node.GetName("Type"); t == "Page" {
		return d.addPage(node, attrs)
	}

	kids, ok := node.GetArray("Kids")
	if !ok {
		return fmt.Errorf("page tree node without Kids")
	}
	for _, kid := range kids {
		if ref, ok := kid.(Reference); ok {
			if visited[ref.ObjectNumber] {
				return fmt.Errorf("page tree cycle at object %d", ref.ObjectNumber)
			}
			visited[ref.ObjectNumber] = true
		}
		obj, err := d.ResolveObject(kid)
		if err != nil {
			return err
		}
		child, ok := obj.(Dictionary)
		if !ok {
			return fmt.Errorf("page tree kid is not a dictionary")
		}
		if err := d.walkPages(child, attrs, visited); err != nil {
			return err
		}
	}
	return nil
}

func (d *Document) addPage(dict Dictionary, attrs inherited) error {
	page := &Page{
		doc:        d,
		Dictionary: dict,
		Number:     len(d.Pages) + 1,
		// US Letter when the tree gives no MediaBox
		MediaBox: Rectangle{0, 0, 612, 792},
	}

	if attrs.mediaBox != nil {
		box, err := d.rectangle(attrs.mediaBox)
		if err != nil {
			return fmt.Errorf("page %d MediaBox: %w", page.Number, err)
		}
		page.MediaBox = box
	}
	if attrs.resources != nil {
		if obj, err := d.ResolveObject(attrs.resources); err == nil {
			page.Resources, _ = obj.(Dictionary)
		}
	}

	d.Pages = append(d.Pages, page)
	return nil
}

func (d *Document) rectangle(obj Object) (Rectangle, error) {
	obj, err := d.ResolveObject(obj)
	if err != nil {
		return Rectangle{}, err
	}
	arr, ok := obj.(Array)
	if !ok || len(arr) != 4 {
		return Rectangle{}, fmt.Errorf("expected array of 4 numbers, got %s", obj)
	}
	var v [4]float64
	for i, item := range arr {
		item, err := d.ResolveObject(item)
		if err != nil {
			return Rectangle{}, err
		}
		if v[i], ok = Number(item); !ok {
			return Rectangle{}, fmt.Errorf("expected number, got %s", item)
		}
	}
	return Rectangle{
		LLX: min(v[0], v[2]), LLY: min(v[1], v[3]),
		URX: max(v[0], v[2]), URY: max(v[1], v[3]),
	}, nil
}

// GetMediaBox returns the page media box
func (p *Page) GetMediaBox() Rectangle {
	return p.MediaBox
}

// GetContents returns the decoded content stream data of the page
func (p *Page) GetContents() ([]byte, error) {
	obj, err := p.doc.ResolveObject(p.Dictionary.Get("Contents"))
	if err != nil {
		return nil, err
	}

	var streams []Object
	switch v := obj.(type) {
	case Null:
		return nil, nil
	case Stream:
		streams = []Object{v}
	case Array:
		streams = v
	default:
		return nil, fmt.Errorf("page %d: invalid Contents %s", p.Number, obj)
	}

	var buf bytes.Buffer
	for _, s := range streams {
		resolved, err := p.doc.ResolveObject(s)
		if err != nil {
			return nil, err
		}
		stream, ok := resolved.(Stream)
		if !ok {
			return nil, fmt.Errorf("page %d: content is not a stream", p.Number)
		}
		data, err := stream.Decode()
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", p.Number, err)
		}
		if buf.Len() > 0 {
			buf.WriteByte('\n')
		}
		buf.Write(data)
	}
	return buf.Bytes(), nil
}

// FontName returns the BaseFont of a font resource, or the resource name
// itself when it cannot be resolved.
func (p *Page) FontName(resource Name) string {
	fonts, err := p.doc.ResolveObject(p.Resources.Get("Font"))
	if err != nil {
		return string(resource)
	}
	fontDict, ok := fonts.(Dictionary)
	if !ok {
		return string(resource)
	}
	font, err := p.doc.ResolveObject(fontDict[resource])
	if err != nil {
		return string(resource)
	}
	if dict, ok := font.(Dictionary); ok {
		if base, ok := dict.GetName("BaseFont"); ok {
			return string(base)
		}
	}
	return string(resource)
}
