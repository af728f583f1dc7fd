package extractor

import (
	"fmt"
	"go/ast"
	"go/parser"
	"strings"

	"github.com/raglab/codeassist-mcp/pkg/types"
)

// extractGo parses Go source via the AST and emits one snippet per top-level
// function or method declaration
func (e *Extractor) extractGo(filePath string, source []byte, result *types.ExtractionResult) {
	lines := strings.Split(string(source), "\n")

	file, err := parser.ParseFile(e.fset, filePath, source, parser.ParseComments)
	if err != nil {
		// Syntax errors are non-fatal - record and continue with whatever
		// partial AST the parser produced
		result.AddError(filePath, 0, fmt.Sprintf("syntax error: %v", err))
	}

	if file == nil {
		return
	}

	for _, decl := range file.Decls {
		funcDecl, ok := decl.(*ast.FuncDecl)
		if !ok {
			continue
		}
		if funcDecl.Name == nil || funcDecl.Body == nil {
			// Forward declarations and assembly stubs carry no retrievable body
			continue
		}

		start := e.fset.Position(funcDecl.Pos()).Line
		end := e.fset.Position(funcDecl.End()).Line

		content := sliceLines(lines, start, end)
		if content == "" {
			continue
		}

		snippet := types.Snippet{
			FilePath:  filePath,
			Name:      funcDecl.Name.Name,
			Kind:      types.SnippetFunction,
			StartLine: start,
			EndLine:   end,
			Content:   content,
		}

		if funcDecl.Recv != nil && len(funcDecl.Recv.List) > 0 {
			snippet.Kind = types.SnippetMethod
			if recv := receiverTypeName(funcDecl.Recv.List[0].Type); recv != "" {
				snippet.Name = recv + "." + funcDecl.Name.Name
			}
		}

		result.Snippets = append(result.Snippets, snippet)
	}

	// A file that parses but declares no functions still holds retrievable
	// declarations (types, constants)
	if len(result.Snippets) == 0 && !result.HasErrors() {
		if block := moduleBlockSnippet(filePath, lines); block != nil {
			result.Snippets = append(result.Snippets, *block)
		}
	}
}

// receiverTypeName extracts the receiver type name from a method declaration
func receiverTypeName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return receiverTypeName(t.X)
	case *ast.Ident:
		return t.Name
	case *ast.IndexExpr:
		// Generic receiver: Type[T]
		return receiverTypeName(t.X)
	case *ast.IndexListExpr:
		return receiverTypeName(t.X)
	}
	return ""
}
