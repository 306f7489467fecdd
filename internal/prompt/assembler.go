package prompt

import "strings"

// Closing is appended to every prompt after the retrieved context.
const Closing = "Note that some of the templates may be more relevant than others, " +
	"and you should address specific nuances of each verse.\n" +
	"Based on the user query, the Bible verse, and the relevant examples, " +
	"please provide a thoughtful response using the style and register of " +
	"the template docs provided. Do not add any additional comments; only return " +
	"the new notes.\n\n" +
	"NEW TRANSLATOR NOTES:\n"

// Section labels, in the order they appear.
const (
	QueryLabel     = "User Query: "
	VerseLabel     = "Bible Verse:\n"
	ExamplesLabel  = "Relevant Examples:\n"
	TemplatesLabel = "Example templates (adapt this style):\n"
)

// Assemble builds the generator input. The layout is fixed; nothing is truncated.
func Assemble(query, reference, verseText string, examples, templates []string) string {
	var b strings.Builder
	b.WriteString(QueryLabel)
	b.WriteString(query)
	b.WriteString("\n\n")
	b.WriteString(VerseLabel)
	b.WriteString(reference)
	b.WriteString(": ")
	b.WriteString(verseText)
	b.WriteString("\n\n")
	b.WriteString(ExamplesLabel)
	b.WriteString(strings.Join(examples, "\n"))
	b.WriteString("\n\n")
	b.WriteString(TemplatesLabel)
	b.WriteString(strings.Join(templates, "\n"))
	b.WriteString("\n\n")
	b.WriteString(Closing)
	return b.String()
}
