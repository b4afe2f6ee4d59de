// Package ooxml provides the low-level Office Open XML plumbing shared by the
// xlsx and docx packages.
//
// An OOXML file is a ZIP archive of XML parts. This package offers three
// building blocks:
//
// Package access over bytes held in memory:
//
//	pkg, err := ooxml.Open(data)
//	sheet, err := pkg.Read("xl/worksheets/sheet1.xml")
//
// An element tree that records the byte span of every element in a part, so
// callers can locate a cell, run or paragraph in the original text:
//
//	root, err := ooxml.Parse(sheet)
//	for _, row := range root.Find("sheetData").ChildrenNamed("row") { ... }
//
// A splice editor that rewrites only the located spans and leaves every other
// byte of the part untouched:
//
//	patched, err := ooxml.Apply(sheet, []ooxml.Edit{{Start: s, End: e, Text: b}})
//	out, err := pkg.Rewrite(map[string][]byte{"xl/worksheets/sheet1.xml": patched})
//
// Rewrite copies every entry that is not replaced in its original compressed
// form, so parts the caller never touched are byte-identical in the output.
package ooxml
