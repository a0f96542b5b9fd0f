package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cv-status/internal/apperr"
	"cv-status/internal/storage"
)

func years(v float64) *float64 { return &v }

func TestPlaceholders(t *testing.T) {
	got := Placeholders("Hi {{first_name}}, {{ role }} at {{company}} for {{first_name}}")
	assert.Equal(t, []string{"first_name", "role", "company"}, got)
	assert.Empty(t, Placeholders("no braces { here }"))
}

func TestValidate_RejectsUnknownPlaceholder(t *testing.T) {
	tpl := &storage.EmailTemplate{
		Name:     "intro",
		Subject:  "Hello {{first_name}}",
		BodyHTML: "<p>{{unknown_field}} and {{ also_bad }}</p>",
	}
	err := Validate(tpl)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeValidation))
	assert.Contains(t, err.Error(), "unknown_field")
	assert.Contains(t, err.Error(), "also_bad")
}

func TestValidate_RequiredFields(t *testing.T) {
	cases := map[string]*storage.EmailTemplate{
		"no name":    {Subject: "s", BodyHTML: "b"},
		"no subject": {Name: "n", BodyHTML: "b"},
		"no body":    {Name: "n", Subject: "s"},
		"empty var":  {Name: "n", Subject: "{{}}", BodyText: "b"},
	}
	for name, tpl := range cases {
		t.Run(name, func(t *testing.T) {
			assert.True(t, apperr.Is(Validate(tpl), apperr.CodeValidation))
		})
	}

	assert.NoError(t, Validate(&storage.EmailTemplate{Name: "n", Subject: "s", BodyText: "{{ top_skills }}"}))
}

func TestPrepare_RendersMarkdown(t *testing.T) {
	tpl := &storage.EmailTemplate{
		Name:         "md",
		Subject:      "Role: {{role}}",
		BodyMarkdown: "Hi **{{first_name}}**,\n\nWe are hiring.",
	}
	require.NoError(t, Prepare(tpl))
	assert.Contains(t, tpl.BodyHTML, "<strong>{{first_name}}</strong>")
	assert.Contains(t, tpl.BodyHTML, "<p>We are hiring.</p>")
}

func TestPrepare_RejectsPlaceholderInMarkdownLink(t *testing.T) {
	tpl := &storage.EmailTemplate{
		Name:    "links",
		Subject: "Hi {{first_name}}",
		BodyMarkdown: "Hello {{first_name}}, [book a call](https://cal.example.com/{{sender_name}}) " +
			"or see ![logo](https://x.example/{{company}}.png) from {{company}}.",
	}
	err := Prepare(tpl)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeValidation))
	assert.Contains(t, err.Error(), "{{company}}, {{sender_name}}")
	assert.Empty(t, tpl.BodyHTML)

	// Stored rows with only Markdown go through the same check at render time.
	out, err := Render(tpl, Vars{VarFirstName: "Ada", VarSenderName: "sam", VarCompany: "acme"})
	assert.Nil(t, out)
	assert.True(t, apperr.Is(err, apperr.CodeValidation))
}

func TestPrepare_RejectsPlaceholderInAutolink(t *testing.T) {
	tpl := &storage.EmailTemplate{
		Name:         "autolink",
		Subject:      "Hi {{first_name}}",
		BodyMarkdown: "Hi {{first_name}}, book at <https://cal.example.com/{{sender_name}}>",
	}
	err := Prepare(tpl)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeValidation))
	assert.Contains(t, err.Error(), "{{sender_name}}")
	assert.Empty(t, tpl.BodyHTML)

	out, err := Render(tpl, Vars{VarFirstName: "Ada", VarSenderName: "sam"})
	assert.Nil(t, out)
	assert.True(t, apperr.Is(err, apperr.CodeValidation))
}

func TestPrepare_PlaceholderInLinkText(t *testing.T) {
	tpl := &storage.EmailTemplate{
		Name:         "link-text",
		Subject:      "Hi",
		BodyMarkdown: "[Meet {{sender_name}}](https://cal.example.com/intro)",
	}
	require.NoError(t, Prepare(tpl))

	out, err := Render(tpl, Vars{VarSenderName: "Sam"})
	require.NoError(t, err)
	assert.Contains(t, out.HTML, `<a href="https://cal.example.com/intro">Meet Sam</a>`)
	assert.NotContains(t, out.HTML, "{{")
}

func TestRender(t *testing.T) {
	c := &storage.Candidate{
		Name:            "Ada King Lovelace",
		Email:           "ada@example.com",
		CurrentTitle:    "Engineer",
		YearsExperience: years(7.9),
		Skills:          []string{"Go", "SQL", "Kafka", "gRPC", "Docker", "Terraform"},
	}
	vars := VarsFor(c, SendContext{SenderName: "Sam", Role: "Staff <Engineer>", Company: "Acme"})

	tpl := &storage.EmailTemplate{
		Subject:  "{{first_name}},\n a {{role}} role",
		BodyHTML: "<p>Hi {{candidate_name}}, {{years_of_experience}} years of {{top_skills}}. {{role}}</p>",
	}
	out, err := Render(tpl, vars)
	require.NoError(t, err)

	assert.Equal(t, "Ada, a Staff <Engineer> role", out.Subject)
	assert.Equal(t, "<p>Hi Ada King Lovelace, 7 years of Go, SQL, Kafka, gRPC, Docker. Staff &lt;Engineer&gt;</p>", out.HTML)
	assert.Contains(t, out.Text, "Hi Ada King Lovelace, 7 years of Go, SQL, Kafka, gRPC, Docker. Staff <Engineer>")
}

func TestRender_MissingValueFailsWhole(t *testing.T) {
	tpl := &storage.EmailTemplate{Subject: "Hi {{first_name}}", BodyHTML: "{{role}}"}
	out, err := Render(tpl, Vars{VarFirstName: "Ada"})
	assert.Nil(t, out)
	assert.True(t, apperr.Is(err, apperr.CodeValidation))
}

func TestRender_TextOnlyTemplateGetsHTML(t *testing.T) {
	tpl := &storage.EmailTemplate{Subject: "s", BodyText: "Hi {{first_name}}\nbye"}
	out, err := Render(tpl, Vars{VarFirstName: "<b>"})
	require.NoError(t, err)
	assert.Equal(t, "Hi <b>\nbye", out.Text)
	assert.Equal(t, "<p>Hi &lt;b&gt;<br>bye</p>", out.HTML)
}

func TestVarsFor_Fallbacks(t *testing.T) {
	vars := VarsFor(&storage.Candidate{}, SendContext{})
	assert.Equal(t, "there", vars[VarCandidateName])
	assert.Equal(t, "there", vars[VarFirstName])
	assert.Equal(t, "", vars[VarYearsOfExperience])
	assert.Len(t, vars, len(Vocabulary))
	for _, name := range Vocabulary {
		assert.True(t, IsKnown(name))
		_, ok := vars[name]
		assert.True(t, ok, name)
	}
}
