package xlsx

// Font is the resolved font of a cell format.
type Font struct {
	Name   string
	Size   string
	Bold   bool
	Italic bool
	Color  string
}

// Alignment is the resolved alignment of a cell format.
type Alignment struct {
	Horizontal string
	Vertical   string
	WrapText   bool
}

// StyleSnapshot is an immutable copy of the formatting a cell carries. It is
// taken before a cell's content is replaced and its Index is written back
// onto the new content, so the cell keeps its font, alignment, number
// format, border and fill.
type StyleSnapshot struct {
	Index      int
	NumFmtID   int
	NumFmtCode string
	FontID     int
	Font       Font
	Alignment  Alignment
	BorderID   int
	FillID     int
}

// builtinNumFmts lists the implicit number formats most often referenced by
// templates. Custom formats come from styles.xml.
var builtinNumFmts = map[int]string{
	0:  "General",
	1:  "0",
	2:  "0.00",
	3:  "#,##0",
	4:  "#,##0.00",
	9:  "0%",
	10: "0.00%",
	14: "mm-dd-yy",
	22: "m/d/yy h:mm",
	49: "@",
}

// Style resolves the cellXfs entry at index into a snapshot. Unknown indexes
// resolve to a snapshot that only carries the index.
func (r *Reader) Style(index int) StyleSnapshot {
	snap := StyleSnapshot{Index: index}
	if r.styles == nil || r.styles.CellXfs == nil {
		return snap
	}
	if index < 0 || index >= len(r.styles.CellXfs.Xf) {
		return snap
	}

	xf := r.styles.CellXfs.Xf[index]
	snap.NumFmtID = xf.NumFmtID
	snap.FontID = xf.FontID
	snap.BorderID = xf.BorderID
	snap.FillID = xf.FillID
	snap.NumFmtCode = builtinNumFmts[xf.NumFmtID]
	if r.styles.NumFmts != nil {
		for _, nf := range r.styles.NumFmts.NumFmt {
			if nf.NumFmtID == xf.NumFmtID {
				snap.NumFmtCode = nf.FormatCode
				break
			}
		}
	}

	if r.styles.Fonts != nil && xf.FontID >= 0 && xf.FontID < len(r.styles.Fonts.Font) {
		f := r.styles.Fonts.Font[xf.FontID]
		snap.Font = Font{
			Name:   f.Name.Val,
			Size:   f.Size.Val,
			Bold:   flagSet(f.Bold),
			Italic: flagSet(f.Italic),
			Color:  f.Color.RGB,
		}
		if snap.Font.Color == "" && f.Color.Theme != "" {
			snap.Font.Color = "theme:" + f.Color.Theme
		}
	}

	if xf.Alignment != nil {
		snap.Alignment = Alignment{
			Horizontal: xf.Alignment.Horizontal,
			Vertical:   xf.Alignment.Vertical,
			WrapText:   xf.Alignment.WrapText == "1" || xf.Alignment.WrapText == "true",
		}
	}

	return snap
}

// CellStyle returns the snapshot of the cell's current format.
func (r *Reader) CellStyle(c *Cell) StyleSnapshot {
	return r.Style(c.StyleIndex)
}

func flagSet(v *valAttrXML) bool {
	if v == nil {
		return false
	}
	return v.Val == "" || v.Val == "1" || v.Val == "true"
}
