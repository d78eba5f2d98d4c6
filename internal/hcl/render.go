package hcl

import (
	"io"
	"strings"

	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/vk/pipebase/internal/config"
	"github.com/zclconf/go-cty/cty"
)

// Render writes cfg as an HCL override file. Field docs become comments and
// every configurable block names its target, so the output can be fed back
// through FileSource.
func Render(cfg *config.Config, w io.Writer) error {
	f := hclwrite.NewEmptyFile()
	renderBody(f.Body(), cfg)
	_, err := w.Write(f.Bytes())
	return err
}

func renderBody(body *hclwrite.Body, cfg *config.Config) {
	for i, name := range cfg.Names() {
		if f, ok := cfg.Field(name); ok {
			appendDoc(body, f.Doc)
			body.SetAttributeValue(name, f.Value())
			continue
		}

		cf, _ := cfg.Configurable(name)
		if i > 0 {
			body.AppendNewline()
		}
		appendDoc(body, cf.Doc)
		block := body.AppendNewBlock(name, nil)
		block.Body().SetAttributeValue(config.ReservedName, cty.StringVal(cf.Target().TargetName()))
		renderBody(block.Body(), cf.Config())
	}
}

func appendDoc(body *hclwrite.Body, doc string) {
	if doc == "" {
		return
	}
	var toks hclwrite.Tokens
	for _, line := range strings.Split(strings.TrimSpace(doc), "\n") {
		toks = append(toks, &hclwrite.Token{
			Type:  hclsyntax.TokenComment,
			Bytes: []byte("# " + strings.TrimSpace(line) + "\n"),
		})
	}
	body.AppendUnstructuredTokens(toks)
}
