// Package model defines the field position map that connects discovered
// form fields to the places their values are written.
//
// # Field Position Map
//
// Analysing a form produces a [FieldMap], an ordered list of
// [FieldDescriptor] values. Each descriptor names a label found in the
// document and, when one could be resolved, the value slot next to it:
//
//	{
//	  "field_id": "excel_Sheet1_A1",
//	  "field_name": "檢查日期",
//	  "field_type": "date",
//	  "label_location": {"type": "cell", "sheet": "Sheet1", "cell": "A1", "row": 1, "column": 1},
//	  "value_location": {"type": "cell", "sheet": "Sheet1", "cell": "B1", "row": 1, "column": 2, "direction": "right", "offset": 1},
//	  "is_merged": false,
//	  "merge_info": null
//	}
//
// # Locations
//
// A [Location] addresses one of three kinds of unit:
//
//   - [KindCell] - a worksheet cell (sheet, A1 reference, 1-indexed row and column)
//   - [KindParagraph] - a body paragraph of a word-processing document
//   - [KindTable] - a table cell (table, row and grid column index)
//
// # Filling
//
// Callers supply [FillValue] entries keyed by field ID. A preview joins them
// with the map into [PreviewItem] values without touching the document.
package model
