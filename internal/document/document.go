// Package document runs the load pipeline shared by every command: size
// check, parse, complexity guard, then render into a page.
package document

import (
	"context"
	"os"

	"github.com/mcncl/jsontree/internal/config"
	"github.com/mcncl/jsontree/internal/errors"
	"github.com/mcncl/jsontree/internal/guards"
	"github.com/mcncl/jsontree/internal/logging"
	"github.com/mcncl/jsontree/internal/models"
	"github.com/mcncl/jsontree/internal/page"
	"github.com/mcncl/jsontree/internal/parser"
	"github.com/mcncl/jsontree/internal/tree"
)

// Loaded is a parsed document that passed the guards.
type Loaded struct {
	Doc     models.Document
	Size    guards.SizeCheck
	Verdict guards.Verdict
}

// LoadFile reads a JSON file. Oversized files are rejected before they are
// parsed.
func LoadFile(path string, limits guards.Limits) (*Loaded, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewInputError("file not found: "+path, errors.ErrFileNotFound)
		}
		return nil, errors.NewInputError("failed to access file: "+path, err)
	}
	if info.IsDir() {
		return nil, errors.NewInputError(path+" is a directory", errors.ErrInvalidFilePath)
	}
	size := limits.CheckSize(info.Size())
	if err := size.Err(); err != nil {
		return nil, err
	}

	doc, err := parser.ParseFile(path)
	if err != nil {
		return nil, err
	}
	return check(doc, limits)
}

// LoadBytes parses JSON held in memory.
func LoadBytes(data []byte, limits guards.Limits) (*Loaded, error) {
	if err := limits.CheckSize(int64(len(data))).Err(); err != nil {
		return nil, err
	}
	doc, err := parser.ParseBytes(data)
	if err != nil {
		return nil, err
	}
	return check(doc, limits)
}

func check(doc models.Document, limits guards.Limits) (*Loaded, error) {
	size, verdict, err := limits.Check(doc)
	if err != nil {
		return nil, err
	}
	return &Loaded{Doc: doc, Size: size, Verdict: verdict}, nil
}

// Render builds a page titled from cfg and renders the document into it.
// A size warning is logged, not returned.
func (l *Loaded) Render(cfg *config.Config, logger logging.Logger) (*page.Page, *tree.Tree) {
	if logger == nil {
		logger = logging.Nop()
	}
	if l.Size.Warning {
		logger.Warn(context.Background(), nil, l.Size.Message, "bytes", l.Size.Size)
	}

	p := page.New(cfg.Output.Title, cfg.Output.Lang)
	t := tree.Render(l.Doc.Root, p.Mount(), cfg.TreeOptions(logger))
	return p, t
}
