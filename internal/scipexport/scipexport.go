// Package scipexport converts a tag table into a SCIP index holding one
// definition occurrence per tag.
package scipexport

import (
	"os"
	"path/filepath"
	"strings"

	scippb "github.com/sourcegraph/scip/bindings/go/scip"
	"google.golang.org/protobuf/proto"

	"verus-etags/internal/errors"
	"verus-etags/internal/tags"
	"verus-etags/internal/version"
)

// Scheme is the SCIP symbol scheme used for exported symbols.
const Scheme = "verus-etags"

// Build returns an index for table. Document paths are made relative to
// root when possible; args are recorded as the tool arguments.
func Build(table *tags.Table, root string, args []string) *scippb.Index {
	index := &scippb.Index{
		Metadata: &scippb.Metadata{
			Version: scippb.ProtocolVersion_UnspecifiedProtocolVersion,
			ToolInfo: &scippb.ToolInfo{
				Name:      "verus-etags",
				Version:   version.Version,
				Arguments: args,
			},
			ProjectRoot:          projectRoot(root),
			TextDocumentEncoding: scippb.TextEncoding_UTF8,
		},
	}

	for _, sec := range table.Sections {
		if len(sec.Tags) == 0 {
			continue
		}
		rel := relativePath(root, sec.Path)
		doc := &scippb.Document{
			Language:     scippb.Language_Rust.String(),
			RelativePath: rel,
		}
		seen := make(map[string]bool)
		for _, tg := range sec.Tags {
			sym := Symbol(rel, tg)
			doc.Occurrences = append(doc.Occurrences, &scippb.Occurrence{
				Range:       occurrenceRange(tg),
				Symbol:      sym,
				SymbolRoles: int32(scippb.SymbolRole_Definition),
			})
			if seen[sym] {
				continue
			}
			seen[sym] = true
			doc.Symbols = append(doc.Symbols, &scippb.SymbolInformation{
				Symbol:        sym,
				DisplayName:   tg.Name,
				Kind:          symbolKind(tg.Kind),
				Documentation: []string{"```rust\n" + tg.Pattern + "\n```"},
			})
		}
		index.Documents = append(index.Documents, doc)
	}
	return index
}

// WriteFile marshals index and writes it to path, replacing any existing
// file atomically.
func WriteFile(path string, index *scippb.Index) error {
	data, err := proto.Marshal(index)
	if err != nil {
		return errors.ForPath(errors.InternalError, path, "failed to encode SCIP index", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return errors.ForPath(errors.OutputUnwritable, path, "failed to write SCIP index", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errors.ForPath(errors.OutputUnwritable, path, "failed to write SCIP index", err)
	}
	return nil
}

// Symbol returns the global SCIP symbol of a tag declared in the file at
// rel. Path components become namespaces.
func Symbol(rel string, tg tags.Tag) string {
	var b strings.Builder
	b.WriteString(Scheme)
	b.WriteString(" . . . ")
	for _, part := range strings.Split(rel, "/") {
		if part == "" || part == "." {
			continue
		}
		b.WriteString(escape(part))
		b.WriteByte('/')
	}
	b.WriteString(escape(tg.Name))
	switch tg.Kind {
	case tags.KindFunction, tags.KindMethod, tags.KindAssumeSpec:
		b.WriteString("().")
	case tags.KindStruct, tags.KindEnum, tags.KindTrait, tags.KindImpl, tags.KindType:
		b.WriteByte('#')
	case tags.KindModule, tags.KindBroadcastGroup:
		b.WriteByte('/')
	case tags.KindMacro:
		b.WriteByte('!')
	default:
		b.WriteByte('.')
	}
	return b.String()
}

func escape(name string) string {
	for _, r := range name {
		if !isSimple(r) {
			return "`" + strings.ReplaceAll(name, "`", "``") + "`"
		}
	}
	if name == "" {
		return "``"
	}
	return name
}

func isSimple(r rune) bool {
	return r == '_' || r == '+' || r == '-' || r == '$' ||
		('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9')
}

// occurrenceRange spans the identifier that names the tag: the last
// segment of composed names.
func occurrenceRange(tg tags.Tag) []int32 {
	line := int32(tg.Line - 1)
	if line < 0 {
		line = 0
	}
	start := int32(0)
	if tg.Column > 0 {
		start = int32(tg.Column - 1)
	}
	return []int32{line, start, start + int32(len(identifier(tg)))}
}

func identifier(tg tags.Tag) string {
	name := tg.Name
	switch tg.Kind {
	case tags.KindVariant:
		if i := strings.LastIndex(name, "::"); i >= 0 {
			return name[i+2:]
		}
	case tags.KindImpl, tags.KindAssumeSpec:
		if i := strings.LastIndexByte(name, ' '); i >= 0 {
			return name[i+1:]
		}
	}
	return name
}

func symbolKind(k tags.Kind) scippb.SymbolInformation_Kind {
	switch k {
	case tags.KindFunction:
		return scippb.SymbolInformation_Function
	case tags.KindMethod:
		return scippb.SymbolInformation_Method
	case tags.KindStruct:
		return scippb.SymbolInformation_Struct
	case tags.KindEnum:
		return scippb.SymbolInformation_Enum
	case tags.KindVariant:
		return scippb.SymbolInformation_EnumMember
	case tags.KindTrait:
		return scippb.SymbolInformation_Trait
	case tags.KindConst:
		return scippb.SymbolInformation_Constant
	case tags.KindType:
		return scippb.SymbolInformation_TypeAlias
	case tags.KindModule:
		return scippb.SymbolInformation_Module
	case tags.KindMacro:
		return scippb.SymbolInformation_Macro
	default:
		return scippb.SymbolInformation_UnspecifiedKind
	}
}

func projectRoot(root string) string {
	abs, err := filepath.Abs(root)
	if err != nil {
		return ""
	}
	return "file://" + filepath.ToSlash(abs)
}

func relativePath(root, path string) string {
	absRoot, err1 := filepath.Abs(root)
	absPath, err2 := filepath.Abs(path)
	if err1 == nil && err2 == nil {
		if rel, err := filepath.Rel(absRoot, absPath); err == nil && !strings.HasPrefix(rel, "..") {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.ToSlash(filepath.Clean(path))
}
