package metadata

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
)

// Table is an in-memory Resolver. It is populated up front, either in code
// or from a TOML description, and is safe for concurrent lookups.
type Table struct {
	mu         sync.RWMutex
	types      map[Token]*Type
	typeNames  map[string]*Type
	fields     map[Token]*Field
	methods    map[Token]*Method
	bodies     map[string]*MethodBody
	strings    map[Token]string
	signatures map[Token][]byte
	properties map[string]*Property
}

// NewTable returns an empty Table.
func NewTable() *Table {
	return &Table{
		types:      map[Token]*Type{},
		typeNames:  map[string]*Type{},
		fields:     map[Token]*Field{},
		methods:    map[Token]*Method{},
		bodies:     map[string]*MethodBody{},
		strings:    map[Token]string{},
		signatures: map[Token][]byte{},
		properties: map[string]*Property{},
	}
}

// AddType registers a type under its token and full name.
func (t *Table) AddType(typ *Type) *Type {
	t.mu.Lock()
	defer t.mu.Unlock()
	if typ.Token != 0 {
		t.types[typ.Token] = typ
	}
	t.typeNames[typ.FullName()] = typ
	return typ
}

// AddField registers a field under its token.
func (t *Table) AddField(f *Field) *Field {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fields[f.Token] = f
	return f
}

// AddMethod registers a method under its token.
func (t *Table) AddMethod(m *Method) *Method {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.methods[m.Token] = m
	return m
}

// AddBody registers a method body, also registering its method.
func (t *Table) AddBody(b *MethodBody) *MethodBody {
	t.AddMethod(b.Method)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.bodies[memberKey(b.Method.DeclaringType, b.Method.Name)] = b
	return b
}

// AddString registers a user string.
func (t *Table) AddString(tok Token, s string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.strings[tok] = s
}

// AddSignature registers a stand-alone signature blob.
func (t *Table) AddSignature(tok Token, blob []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.signatures[tok] = append([]byte(nil), blob...)
}

// AddProperty registers a property.
func (t *Table) AddProperty(p *Property) *Property {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.properties[memberKey(p.DeclaringType, p.Name)] = p
	return p
}

// ResolveField implements Resolver.
func (t *Table) ResolveField(tok Token) (*Field, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	f, ok := t.fields[tok]
	return f, ok
}

// ResolveMethod implements Resolver.
func (t *Table) ResolveMethod(tok Token) (*Method, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	m, ok := t.methods[tok]
	return m, ok
}

// ResolveType implements Resolver.
func (t *Table) ResolveType(tok Token) (*Type, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	typ, ok := t.types[tok]
	return typ, ok
}

// ResolveString implements Resolver.
func (t *Table) ResolveString(tok Token) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.strings[tok]
	return s, ok
}

// ResolveSignature implements SignatureResolver.
func (t *Table) ResolveSignature(tok Token) ([]byte, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	blob, ok := t.signatures[tok]
	return blob, ok
}

// Body returns the body of the method with the given "Type::Method" name.
func (t *Table) Body(name string) (*MethodBody, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	b, ok := t.bodies[name]
	return b, ok
}

// Property returns the property with the given "Type::Property" name.
func (t *Table) Property(name string) (*Property, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.properties[name]
	return p, ok
}

// BodyNames returns the names of all registered method bodies, sorted.
func (t *Table) BodyNames() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	names := make([]string, 0, len(t.bodies))
	for name := range t.bodies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PropertyNames returns the names of all registered properties, sorted.
func (t *Table) PropertyNames() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	names := make([]string, 0, len(t.properties))
	for name := range t.properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func memberKey(declaring *Type, name string) string {
	return declaring.FullName() + "::" + name
}

type tableFile struct {
	Types      []typeEntry      `toml:"types"`
	Fields     []fieldEntry     `toml:"fields"`
	Methods    []methodEntry    `toml:"methods"`
	Strings    []stringEntry    `toml:"strings"`
	Signatures []signatureEntry `toml:"signatures"`
	Properties []propertyEntry  `toml:"properties"`
}

type typeEntry struct {
	Token     uint32 `toml:"token"`
	Namespace string `toml:"namespace"`
	Name      string `toml:"name"`
	ValueType bool   `toml:"value_type"`
}

type fieldEntry struct {
	Token             uint32 `toml:"token"`
	Name              string `toml:"name"`
	DeclaringType     string `toml:"declaring_type"`
	Type              string `toml:"type"`
	Static            bool   `toml:"static"`
	CompilerGenerated bool   `toml:"compiler_generated"`
}

type methodEntry struct {
	Token             uint32   `toml:"token"`
	Name              string   `toml:"name"`
	DeclaringType     string   `toml:"declaring_type"`
	Params            []string `toml:"params"`
	Returns           string   `toml:"returns"`
	Static            bool     `toml:"static"`
	Virtual           bool     `toml:"virtual"`
	Constructor       bool     `toml:"constructor"`
	CompilerGenerated bool     `toml:"compiler_generated"`
	Locals            []string `toml:"locals"`
	Code              string   `toml:"code"`
}

type stringEntry struct {
	Token uint32 `toml:"token"`
	Value string `toml:"value"`
}

type signatureEntry struct {
	Token uint32 `toml:"token"`
	Blob  string `toml:"blob"`
}

type propertyEntry struct {
	Name          string `toml:"name"`
	DeclaringType string `toml:"declaring_type"`
	Type          string `toml:"type"`
	Getter        string `toml:"getter"`
	Setter        string `toml:"setter"`
}

// LoadTableFile reads a TOML symbol description from the named file.
func LoadTableFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadTable(f)
}

// LoadTable reads a TOML symbol description. Types are referred to by full
// name ("Geo.Point"), by primitive name ("int32"), or as arrays ("int32[]").
// Method bodies are hex encoded; whitespace in the encoding is ignored.
// Bodies and properties are named "Type::Member", so two bodies for
// overloads of one method are rejected rather than one replacing the other.
func LoadTable(r io.Reader) (*Table, error) {
	var file tableFile
	if _, err := toml.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("symbol table: %w", err)
	}
	t := NewTable()
	for _, e := range file.Types {
		t.AddType(&Type{
			Token:     Token(e.Token),
			Namespace: e.Namespace,
			Name:      e.Name,
			ValueType: e.ValueType,
		})
	}
	for _, e := range file.Fields {
		declaring, err := t.lookupType(e.DeclaringType)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", e.Name, err)
		}
		typ, err := t.lookupType(e.Type)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", e.Name, err)
		}
		t.AddField(&Field{
			Token:             Token(e.Token),
			Name:              e.Name,
			DeclaringType:     declaring,
			Type:              typ,
			Static:            e.Static,
			CompilerGenerated: e.CompilerGenerated,
		})
	}
	for _, e := range file.Methods {
		if err := t.loadMethod(e); err != nil {
			return nil, fmt.Errorf("method %q: %w", e.Name, err)
		}
	}
	for _, e := range file.Strings {
		t.AddString(Token(e.Token), e.Value)
	}
	for _, e := range file.Signatures {
		blob, err := decodeHex(e.Blob)
		if err != nil {
			return nil, fmt.Errorf("signature %s: %w", Token(e.Token), err)
		}
		t.AddSignature(Token(e.Token), blob)
	}
	for _, e := range file.Properties {
		if err := t.loadProperty(e); err != nil {
			return nil, fmt.Errorf("property %q: %w", e.Name, err)
		}
	}
	return t, nil
}

func (t *Table) loadMethod(e methodEntry) error {
	declaring, err := t.lookupType(e.DeclaringType)
	if err != nil {
		return err
	}
	m := &Method{
		Token:             Token(e.Token),
		Name:              e.Name,
		DeclaringType:     declaring,
		Static:            e.Static,
		Virtual:           e.Virtual,
		Constructor:       e.Constructor,
		CompilerGenerated: e.CompilerGenerated,
	}
	for _, p := range e.Params {
		typ, err := t.lookupType(p)
		if err != nil {
			return err
		}
		m.Params = append(m.Params, typ)
	}
	if e.Returns != "" {
		if m.ReturnType, err = t.lookupType(e.Returns); err != nil {
			return err
		}
	}
	if e.Code == "" {
		t.AddMethod(m)
		return nil
	}
	body := &MethodBody{Method: m}
	for _, l := range e.Locals {
		typ, err := t.lookupType(l)
		if err != nil {
			return err
		}
		body.Locals = append(body.Locals, typ)
	}
	if body.Code, err = decodeHex(e.Code); err != nil {
		return err
	}
	key := memberKey(declaring, e.Name)
	if _, dup := t.Body(key); dup {
		return fmt.Errorf("duplicate body for %s", key)
	}
	t.AddBody(body)
	return nil
}

func (t *Table) loadProperty(e propertyEntry) error {
	declaring, err := t.lookupType(e.DeclaringType)
	if err != nil {
		return err
	}
	p := &Property{Name: e.Name, DeclaringType: declaring}
	if e.Type != "" {
		if p.Type, err = t.lookupType(e.Type); err != nil {
			return err
		}
	}
	for _, accessor := range []struct {
		name string
		dst  **MethodBody
	}{{e.Getter, &p.Getter}, {e.Setter, &p.Setter}} {
		if accessor.name == "" {
			continue
		}
		body, ok := t.Body(memberKey(declaring, accessor.name))
		if !ok {
			return fmt.Errorf("no body for accessor %q", accessor.name)
		}
		*accessor.dst = body
	}
	key := memberKey(declaring, e.Name)
	if _, dup := t.Property(key); dup {
		return fmt.Errorf("duplicate property %s", key)
	}
	t.AddProperty(p)
	return nil
}

func (t *Table) lookupType(name string) (*Type, error) {
	if elem, ok := strings.CutSuffix(name, "[]"); ok {
		e, err := t.lookupType(elem)
		if err != nil {
			return nil, err
		}
		return &Type{Elem: e}, nil
	}
	if p, ok := Primitive(name); ok {
		return p, nil
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	if typ, ok := t.typeNames[name]; ok {
		return typ, nil
	}
	return nil, fmt.Errorf("unknown type %q", name)
}

func decodeHex(s string) ([]byte, error) {
	s = strings.Join(strings.Fields(s), "")
	return hex.DecodeString(s)
}
