// Package schema has the data model shared by all parts of pagegate: pages,
// upstream result documents, merged reports, gate verdicts and run history.
package schema
