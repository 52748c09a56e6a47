// Package ratecard reads and writes HCL rate cards.
//
// A rate card holds one service's active config:
//
//	ratecard "saniscrub" {
//	  version     = "2025-06"
//	  fixtureRate = { monthly = 25, bimonthly = 35, quarterly = 40 }
//	  minimum     = { monthly = 175, bimonthly = 200, quarterly = 250 }
//	}
//
// Every attribute other than version becomes a key of the document's config.
package ratecard

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclwrite"

	"cleanquote/core/pricing"
	cqerrors "cleanquote/internal/errors"
)

const (
	blockType   = "ratecard"
	versionAttr = "version"
)

var fileSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: blockType, LabelNames: []string{"service"}},
	},
}

// Parse reads a rate card. The file must contain exactly one ratecard block.
func Parse(filename string, src []byte) (*pricing.Document, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, diagnosticsError(filename, diags)
	}

	content, diags := file.Body.Content(fileSchema)
	if diags.HasErrors() {
		return nil, diagnosticsError(filename, diags)
	}
	if len(content.Blocks) != 1 {
		return nil, cqerrors.MalformedConfig(
			fmt.Sprintf("%s: expected one ratecard block, found %d", filename, len(content.Blocks)))
	}

	block := content.Blocks[0]
	attrs, diags := block.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, diagnosticsError(filename, diags)
	}

	doc := &pricing.Document{
		ServiceID: block.Labels[0],
		Config:    make(map[string]any, len(attrs)),
		Source:    pricing.SourceFile,
	}

	for name, attr := range attrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, diagnosticsError(filename, diags)
		}

		if name == versionAttr {
			v, err := toGo(name, val)
			if err != nil {
				return nil, err
			}
			if v != nil {
				doc.Version = fmt.Sprint(v)
			}
			continue
		}

		v, err := toGo(name, val)
		if err != nil {
			return nil, err
		}
		doc.Config[name] = v
	}

	return doc, nil
}

// Encode renders a document as a rate card
func Encode(doc *pricing.Document) ([]byte, error) {
	f := hclwrite.NewEmptyFile()
	block := f.Body().AppendNewBlock(blockType, []string{doc.ServiceID})
	body := block.Body()

	if doc.Version != "" {
		v, err := toCty(doc.Version)
		if err != nil {
			return nil, err
		}
		body.SetAttributeValue(versionAttr, v)
	}

	for _, k := range sortedKeys(doc.Config) {
		v, err := toCty(doc.Config[k])
		if err != nil {
			return nil, cqerrors.Wrapf(cqerrors.TypeMalformedConfig, err, "encode %s", k)
		}
		body.SetAttributeValue(k, v)
	}

	return f.Bytes(), nil
}

func diagnosticsError(filename string, diags hcl.Diagnostics) error {
	var msgs []string
	for _, diag := range diags {
		if diag.Severity != hcl.DiagError {
			continue
		}
		line := 0
		if diag.Subject != nil {
			line = diag.Subject.Start.Line
		}
		msgs = append(msgs, fmt.Sprintf("line %d: %s: %s", line, diag.Summary, diag.Detail))
	}
	return cqerrors.Parsing(fmt.Sprintf("%s: %s", filename, strings.Join(msgs, "; ")), diags)
}
