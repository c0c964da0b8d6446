package render

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"
)

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const relsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

// A4 with 2 cm margins, sizes in twentieths of a point. Font size is in
// half points, line spacing 1.15.
const documentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
{{- range .Paragraphs}}
<w:p><w:pPr><w:jc w:val="{{.Align}}"/><w:spacing w:line="276" w:lineRule="auto"/></w:pPr>
{{- range .Runs}}{{template "run" .}}{{end}}</w:p>
{{- end}}
<w:tbl>
<w:tblPr><w:jc w:val="center"/><w:tblW w:w="0" w:type="auto"/>
<w:tblBorders>
<w:top w:val="single" w:sz="4" w:space="0" w:color="000000"/>
<w:left w:val="single" w:sz="4" w:space="0" w:color="000000"/>
<w:bottom w:val="single" w:sz="4" w:space="0" w:color="000000"/>
<w:right w:val="single" w:sz="4" w:space="0" w:color="000000"/>
<w:insideH w:val="single" w:sz="4" w:space="0" w:color="000000"/>
<w:insideV w:val="single" w:sz="4" w:space="0" w:color="000000"/>
</w:tblBorders></w:tblPr>
<w:tblGrid><w:gridCol w:w="1701"/><w:gridCol w:w="3402"/><w:gridCol w:w="2268"/></w:tblGrid>
<w:tr>{{range .Header}}{{template "cell" (bold .)}}{{end}}</w:tr>
{{- range .Rows}}
<w:tr>{{range .}}{{template "cell" (plain .)}}{{end}}</w:tr>
{{- end}}
</w:tbl>
<w:sectPr><w:pgSz w:w="11906" w:h="16838"/><w:pgMar w:top="1134" w:right="1134" w:bottom="1134" w:left="1134" w:header="709" w:footer="709" w:gutter="0"/></w:sectPr>
</w:body>
</w:document>
{{- define "run"}}<w:r><w:rPr><w:rFonts w:ascii="Times New Roman" w:hAnsi="Times New Roman" w:cs="Times New Roman" w:eastAsia="Times New Roman"/>{{if .Bold}}<w:b/>{{end}}<w:sz w:val="24"/></w:rPr><w:t xml:space="preserve">{{xml .Text}}</w:t></w:r>{{end}}
{{- define "cell"}}<w:tc><w:p><w:pPr><w:jc w:val="center"/><w:spacing w:line="276" w:lineRule="auto"/></w:pPr>{{template "run" .}}</w:p></w:tc>{{end}}`

var docxTemplate = template.Must(template.New("document").Funcs(template.FuncMap{
	"xml":   escapeXML,
	"bold":  func(s string) Run { return Run{Text: s, Bold: true} },
	"plain": func(s string) Run { return Run{Text: s} },
}).Parse(documentXML))

type docxParagraph struct {
	Align string
	Runs  []Run
}

type docxDocument struct {
	Paragraphs []docxParagraph
	Header     [3]string
	Rows       [][3]string
}

func newDocxDocument(c Content) docxDocument {
	centered := func(text string, bold bool) docxParagraph {
		return docxParagraph{Align: "center", Runs: []Run{{Text: text, Bold: bold}}}
	}
	justified := func(runs ...Run) docxParagraph {
		return docxParagraph{Align: "both", Runs: runs}
	}

	doc := docxDocument{Header: c.Header, Rows: c.Rows}
	doc.Paragraphs = append(doc.Paragraphs,
		centered(c.Title, true),
		centered(c.Subtitle, true),
		centered(c.City, false),
		centered(c.Date, false),
		justified(c.Intro...),
		justified(Run{Text: c.Summary}),
	)
	for _, s := range c.Sections {
		doc.Paragraphs = append(doc.Paragraphs,
			centered(s.Title, true),
			justified(Run{Text: s.Text}),
		)
	}
	doc.Paragraphs = append(doc.Paragraphs, docxParagraph{Align: "left", Runs: []Run{{Text: c.Schedule, Bold: true}}})
	return doc
}

// WriteDocx encodes c as a WordprocessingML package.
func WriteDocx(w io.Writer, c Content) error {
	zw := zip.NewWriter(w)

	parts := []struct {
		name string
		body func(io.Writer) error
	}{
		{"[Content_Types].xml", writeString(contentTypesXML)},
		{"_rels/.rels", writeString(relsXML)},
		{"word/document.xml", func(w io.Writer) error {
			return docxTemplate.Execute(w, newDocxDocument(c))
		}},
	}

	for _, part := range parts {
		fw, err := zw.Create(part.name)
		if err != nil {
			return err
		}
		if err := part.body(fw); err != nil {
			return fmt.Errorf("failed to write %s: %w", part.name, err)
		}
	}
	return zw.Close()
}

func writeDocxFile(path string, c Content) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteDocx(f, c); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeString(s string) func(io.Writer) error {
	return func(w io.Writer) error {
		_, err := io.WriteString(w, s)
		return err
	}
}

func escapeXML(s string) (string, error) {
	var b strings.Builder
	if err := xml.EscapeText(&b, []byte(s)); err != nil {
		return "", err
	}
	return b.String(), nil
}
