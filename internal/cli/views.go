package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/fluxsocial/socialdna/internal/model"
	"github.com/fluxsocial/socialdna/internal/page"
)

// pageFlags are the --size and --page flags shared by list commands.
type pageFlags struct {
	size   int
	number int
}

func addPageFlags(cmd *cobra.Command, p *pageFlags) {
	cmd.Flags().IntVar(&p.size, "size", 20, "page size")
	cmd.Flags().IntVar(&p.number, "page", 0, "page number, starting at 0")
}

func (p pageFlags) request() page.Request {
	return page.New(p.size, p.number)
}

// ack is the result of a mutation with nothing else to report.
type ack struct {
	Action  string `json:"action"`
	Subject string `json:"subject,omitempty"`
}

func (a ack) RenderText(w io.Writer) {
	if a.Subject == "" {
		fmt.Fprintln(w, a.Action)
		return
	}
	fmt.Fprintf(w, "%s %s\n", a.Action, a.Subject)
}

type identityPage model.IdentityPage

func (p identityPage) RenderText(w io.Writer) {
	if len(p.Items) == 0 {
		fmt.Fprintln(w, "(none)")
		return
	}
	for _, id := range p.Items {
		fmt.Fprintln(w, id)
	}
}

type identityList []model.Identity

func (l identityList) RenderText(w io.Writer) {
	identityPage{Items: l}.RenderText(w)
}

type expressionView model.Expression

func (e expressionView) RenderText(w io.Writer) {
	fmt.Fprintf(w, "%s  %s  %s", e.ContentRef, e.Creator, e.CreatedAt.Time().UTC().Format("2006-01-02T15:04:05.000Z"))
	if e.Recipient != "" {
		fmt.Fprintf(w, "  to %s", e.Recipient)
	}
	switch e.Content.Kind {
	case model.ContentText:
		fmt.Fprintf(w, "  %q\n", e.Content.Text)
	default:
		fmt.Fprintf(w, "  ref %s (%s)\n", e.Content.Ref, e.Content.SchemaID)
	}
}

type expressionPage model.Page[model.Expression]

func (p expressionPage) RenderText(w io.Writer) {
	if len(p.Items) == 0 {
		fmt.Fprintln(w, "(none)")
		return
	}
	for _, e := range p.Items {
		expressionView(e).RenderText(w)
	}
}

type linkPage model.Page[model.CrossLink]

func (p linkPage) RenderText(w io.Writer) {
	if len(p.Items) == 0 {
		fmt.Fprintln(w, "(none)")
		return
	}
	for _, l := range p.Items {
		fmt.Fprintf(w, "%s -> %s  by %s\n", l.Source, l.Target, l.CreatedBy)
	}
}

type requestPage model.Page[model.FriendshipRequest]

func (p requestPage) RenderText(w io.Writer) {
	if len(p.Items) == 0 {
		fmt.Fprintln(w, "(none)")
		return
	}
	for _, r := range p.Items {
		fmt.Fprintf(w, "%s -> %s  %s\n", r.From, r.To, r.State)
	}
}

type postPage model.Page[model.Post]

func (p postPage) RenderText(w io.Writer) {
	if len(p.Items) == 0 {
		fmt.Fprintln(w, "(none)")
		return
	}
	for _, post := range p.Items {
		fmt.Fprintf(w, "%s  by %s\n", post.Ref, post.Author)
	}
}

type methodPage model.Page[model.CommunicationMethod]

func (p methodPage) RenderText(w io.Writer) {
	if len(p.Items) == 0 {
		fmt.Fprintln(w, "(none)")
		return
	}
	for _, m := range p.Items {
		fmt.Fprintf(w, "%s  by %s\n", m.Partition, m.RegisteredBy)
	}
}

type partitionPage model.Page[model.PartitionID]

func (p partitionPage) RenderText(w io.Writer) {
	if len(p.Items) == 0 {
		fmt.Fprintln(w, "(none)")
		return
	}
	for _, id := range p.Items {
		fmt.Fprintln(w, id)
	}
}

type profileView model.Profile

func (p profileView) RenderText(w io.Writer) {
	fmt.Fprintf(w, "%s  %s\n", p.Identity, p.DisplayName)
	if p.Summary != "" {
		fmt.Fprintf(w, "  %s\n", p.Summary)
	}
	if p.Avatar != nil {
		fmt.Fprintf(w, "  avatar %s\n", *p.Avatar)
	}
}
