// Package roster reads people from flat files and builds the chart graph.
//
// # Formats
//
// A roster is a list of [Record] values in one of four encodings, chosen
// by file extension:
//
//	id,name,picture_url,location,team,parent      (.csv, header required)
//	[{"id": "1", "name": "Ada", "parent": ""}]    (.json)
//	[[person]] id = "1" name = "Ada"              (.toml)
//	- {id: "1", name: Ada}                        (.yaml, .yml)
//
// JSON and YAML files may instead hold a nested organisation [Tree], and a
// JSON file with "nodes" and "links" is read as a ready-made graph by
// [LoadGraph].
//
// # Graph construction
//
// [BuildGraph] groups people sharing a team into one team node with id
// "team:<slug>", and links each person's top-level node to their parent's.
// Problems in the data never fail the build; they come back as issues:
//
//	g, issues := roster.BuildGraph(records)
//	for _, is := range issues {
//	    log.Warn(is.Message, "id", is.NodeID)
//	}
package roster
