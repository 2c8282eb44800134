package model

import "github.com/fluxsocial/socialdna/internal/errs"

// ContentKind tags the closed set of content shapes an expression can carry.
type ContentKind string

const (
	// ContentText is an inline UTF-8 body.
	ContentText ContentKind = "text"

	// ContentReference is an opaque hash plus a schema id that the caller
	// resolves outside the engine.
	ContentReference ContentKind = "reference"
)

// MaxTextLength bounds inline text bodies.
const MaxTextLength = 64 * 1024

// Content is the tagged payload of an Expression.
type Content struct {
	Kind ContentKind `json:"kind" validate:"required,oneof=text reference"`

	// Text is set for ContentText.
	Text string `json:"text,omitempty" validate:"required_if=Kind text,max=65536"`

	// Ref and SchemaID are set for ContentReference.
	Ref      Hash   `json:"ref,omitempty" validate:"required_if=Kind reference,max=256"`
	SchemaID string `json:"schema_id,omitempty" validate:"required_if=Kind reference,max=256"`

	// Nonce distinguishes intentionally repeated identical content.
	// Retries must reuse the nonce to stay idempotent.
	Nonce string `json:"nonce,omitempty" validate:"max=128"`
}

// Text builds a ContentText payload.
func Text(body string) Content {
	return Content{Kind: ContentText, Text: body}
}

// Reference builds a ContentReference payload.
func Reference(ref Hash, schemaID string) Content {
	return Content{Kind: ContentReference, Ref: ref, SchemaID: schemaID}
}

// Validate checks the variant invariants beyond struct tags: a text
// payload carries no reference fields and vice versa.
func (c Content) Validate(op string) error {
	if err := ValidateStruct(op, c); err != nil {
		return err
	}
	switch {
	case c.Kind == ContentText && (c.Ref != "" || c.SchemaID != ""):
		return errs.New(errs.InvalidArgument, op, "text content must not carry a reference")
	case c.Kind == ContentReference && c.Text != "":
		return errs.New(errs.InvalidArgument, op, "reference content must not carry text")
	}
	return nil
}

func (c Content) canonical() map[string]any {
	m := map[string]any{"kind": string(c.Kind)}
	switch c.Kind {
	case ContentText:
		m["text"] = c.Text
	case ContentReference:
		m["ref"] = c.Ref
		m["schema_id"] = c.SchemaID
	}
	if c.Nonce != "" {
		m["nonce"] = c.Nonce
	}
	return m
}

// Expression is an immutable authored or privately delivered entry.
type Expression struct {
	ContentRef      GlobalEntryRef `json:"content_ref"`
	OriginPartition PartitionID    `json:"origin_partition"`
	Creator         Identity       `json:"creator"`
	CreatedAt       Timestamp      `json:"created_at"`
	Content         Content        `json:"content"`

	// LinkPartition optionally names the partition where comments on this
	// expression should be linked.
	LinkPartition *PartitionID `json:"link_partition,omitempty"`

	// Recipient is set only on private expressions.
	Recipient Identity `json:"recipient,omitempty"`
}

// IsPrivate reports whether e was delivered directly to one recipient.
func (e Expression) IsPrivate() bool {
	return e.Recipient != ""
}

// ReceiptID is the opaque delivery receipt returned by a private send.
type ReceiptID string
