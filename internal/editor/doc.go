// Package editor projects a configuration document into editable blocks and
// turns edits back into a document.
//
// Each agent, provider and channel becomes a Block whose fields follow a
// fixed schema for its Kind. Channels use one of two schemas depending on
// their type, and switching the type swaps the field set. Commit never
// patches the loaded document: it rebuilds a new one from every block,
// validates it and hands it to the store.
package editor
