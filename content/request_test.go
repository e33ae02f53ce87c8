package content

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitTechnologies(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"React, Node.js , Go", []string{"React", "Node.js", "Go"}},
		{"Go", []string{"Go"}},
		{"Go,,Rust", []string{"Go", "", "Rust"}},
		{" ", []string{""}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SplitTechnologies(tt.input), "input %q", tt.input)
	}
}

func TestStatusPublished(t *testing.T) {
	assert.True(t, StatusPublished.Published())
	assert.False(t, StatusDraft.Published())
	assert.False(t, Status("").Published())
}

func TestValidateRequestRequiredFields(t *testing.T) {
	err := validateRequest(CreateProjectRequest{ProjectForm: ProjectForm{Title: "Only a title"}})
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Message, "Description is required")
	assert.Contains(t, verr.Message, "Technologies is required")
	assert.NotContains(t, verr.Message, "Title")
}

func TestValidateRequestStatus(t *testing.T) {
	form := PostForm{Title: "t", Excerpt: "e", Content: "c", Status: "archived"}
	err := validateRequest(CreatePostRequest{PostForm: form})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.True(t, strings.HasPrefix(err.Error(), "Status must be one of"))

	form.Status = ""
	assert.NoError(t, validateRequest(CreatePostRequest{PostForm: form}))
}

func TestValidateUpdateRequiresID(t *testing.T) {
	form := PostForm{Title: "t", Excerpt: "e", Content: "c", Status: StatusDraft}
	err := validateRequest(UpdatePostRequest{PostForm: form})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ID is required")
}

func TestAttachmentDataURL(t *testing.T) {
	a := &Attachment{Filename: "a.txt", ContentType: "text/plain", Data: []byte("hi")}
	assert.Equal(t, "data:text/plain;base64,aGk=", a.DataURL())

	var none *Attachment
	assert.True(t, none.Empty())
	assert.True(t, (&Attachment{}).Empty())
}
