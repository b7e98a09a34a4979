// Package extract turns file paths and remote document references into plain text.
//
// Local files are dispatched on their extension: plain text and source files are
// decoded with charset detection, PDF, HTML and CSV go through the langchaingo
// document loaders, and Word documents are read straight out of their zip
// container. References of the form "gdoc:<id>" and "gsheet:<id>" are read
// through the Docs and Sheets APIs when an authorized client is configured,
// and otherwise from the export endpoints, which only serve link-shared documents.
//
// Anything else yields ErrUnsupported so that indexing can skip it.
package extract
