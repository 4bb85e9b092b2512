// Package scrape turns raw timetable HTML into raw event records.
//
// The concrete Timetable extractor understands the IANUA lecture calendar
// layout: h2 headings naming each calendar, followed by a table of rows with
// date, time range, module title, lecturer, and an optional details link.
// Selector logic lives behind the Extractor interface so a different source
// layout can be swapped in without touching the pipeline.
package scrape
