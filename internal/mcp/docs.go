package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `studyportal tracks coursework for a class.

- Work: an assignment with a subject, a deadline (YYYY-MM-DD) and one status entry per student.
  Each entry is completed, doing or not_started; the work's counts always match its entries.
- Totals: completed/doing/not_started summed over every work, recomputed on each read.
- Portion: the ordered, duplicate-free list of topics a staff member has finished in a subject.
- Material: a shared link to notes or slides.

Start with list_works or list_portions. set_work_status records the caller's own status; with
auth enabled the caller comes from the bearer token and userId/username arguments are ignored.
add_topic is idempotent: re-adding a topic reports already_existed=true and changes nothing.

Docs: portal://docs/states
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "portal://docs/states",
		Name:        "docs_states",
		Title:       "Work states",
		Description: "Accepted work states, their aliases and how totals are derived.",
		Content: `# Work states

| state        | also accepted                                   |
|--------------|-------------------------------------------------|
| completed    |                                                 |
| doing        |                                                 |
| not_started  | not yet started, not-started, notyetstarted     |

A student has at most one entry per work. Setting a state again replaces the
entry in place, so repeated calls with the same state change nothing.

Totals are recomputed from every stored work on each request; they are never
maintained incrementally.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		doc := doc

		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
