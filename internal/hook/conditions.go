package hook

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ConditionKind tags the closed set of condition variants.
type ConditionKind string

const (
	// CondFileExtension matches the context file path's extension.
	CondFileExtension ConditionKind = "file_extension"
	// CondPathPrefix matches a normalized prefix of the file path.
	CondPathPrefix ConditionKind = "path_prefix"
	// CondFileSize compares the file's size on disk against a bound.
	CondFileSize ConditionKind = "file_size"
)

// SizeOp is the comparison operator for CondFileSize.
type SizeOp string

const (
	SizeLess         SizeOp = "<"
	SizeLessEqual    SizeOp = "<="
	SizeGreater      SizeOp = ">"
	SizeGreaterEqual SizeOp = ">="
)

// IsValid returns true for a defined comparison operator.
func (op SizeOp) IsValid() bool {
	switch op {
	case SizeLess, SizeLessEqual, SizeGreater, SizeGreaterEqual:
		return true
	}
	return false
}

// Condition is one trigger condition on a hook. Exactly the fields for
// its Kind are meaningful.
type Condition struct {
	Kind ConditionKind

	// Ext is the extension (without dot) for CondFileExtension.
	Ext string

	// Prefix is the path prefix for CondPathPrefix.
	Prefix string

	// Op and Bytes are the comparison for CondFileSize.
	Op    SizeOp
	Bytes int64
}

// Validate checks that the condition is well formed.
func (c Condition) Validate() error {
	switch c.Kind {
	case CondFileExtension:
		if c.Ext == "" {
			return fmt.Errorf("file_extension condition requires an extension")
		}
		if strings.HasPrefix(c.Ext, ".") {
			return fmt.Errorf("file_extension %q must not include the dot", c.Ext)
		}
	case CondPathPrefix:
		if c.Prefix == "" {
			return fmt.Errorf("path_prefix condition requires a prefix")
		}
	case CondFileSize:
		if !c.Op.IsValid() {
			return fmt.Errorf("file_size operator %q is not one of <, <=, >, >=", c.Op)
		}
		if c.Bytes < 0 {
			return fmt.Errorf("file_size bound must be non-negative")
		}
	default:
		return fmt.Errorf("unknown condition kind: %s", c.Kind)
	}
	return nil
}

// Eval reports whether the condition holds for the context. A missing
// or unreadable file is a non-match; the returned error is advisory
// and never fatal to a dispatch.
func (c Condition) Eval(ctx *ExecutionContext) (bool, error) {
	switch c.Kind {
	case CondFileExtension:
		if ctx.FilePath == "" {
			return false, nil
		}
		return strings.TrimPrefix(filepath.Ext(ctx.FilePath), ".") == c.Ext, nil

	case CondPathPrefix:
		if ctx.FilePath == "" {
			return false, nil
		}
		return hasPathPrefix(ctx.FilePath, c.Prefix), nil

	case CondFileSize:
		if ctx.FilePath == "" {
			return false, nil
		}
		info, err := os.Stat(ctx.FilePath)
		if err != nil {
			if os.IsNotExist(err) {
				return false, nil
			}
			return false, fmt.Errorf("stat %s: %w", ctx.FilePath, err)
		}
		return compareSize(info.Size(), c.Op, c.Bytes), nil
	}

	return false, fmt.Errorf("unknown condition kind: %s", c.Kind)
}

func compareSize(size int64, op SizeOp, bound int64) bool {
	switch op {
	case SizeLess:
		return size < bound
	case SizeLessEqual:
		return size <= bound
	case SizeGreater:
		return size > bound
	case SizeGreaterEqual:
		return size >= bound
	}
	return false
}

// hasPathPrefix tests a cleaned, component-aligned prefix so that
// "src/foo" does not match prefix "src/f".
func hasPathPrefix(path, prefix string) bool {
	path = filepath.Clean(path)
	prefix = filepath.Clean(prefix)
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, prefix+string(filepath.Separator))
}
