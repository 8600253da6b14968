package parts_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/canonical/craft-parts-go/internal/parts"
)

func TestValidateNameRejectsWhitespaceAndSeparators(t *testing.T) {
	assert.Error(t, parts.ValidateName(""))
	assert.Error(t, parts.ValidateName("foo bar"))
	assert.Error(t, parts.ValidateName("foo/bar"))
	assert.Error(t, parts.ValidateName("foo\\bar"))
	assert.NoError(t, parts.ValidateName("foo-bar.baz+1"))
}

func TestValidateRejectsOwnerWithoutGroup(t *testing.T) {
	owner := 1000
	p := &parts.Part{
		Name:        "hello",
		Permissions: []parts.PermissionRule{{Path: "*", Owner: &owner}},
	}
	err := p.Validate()
	assert.Error(t, err)
}

func TestValidateRejectsBadOctalMode(t *testing.T) {
	p := &parts.Part{
		Name:        "hello",
		Permissions: []parts.PermissionRule{{Path: "*", Mode: "999"}},
	}
	assert.Error(t, p.Validate())
}

func TestValidateRejectsOrganizeFromPartition(t *testing.T) {
	p := &parts.Part{
		Name:     "hello",
		Organize: []parts.OrganizeEntry{{From: "(mypart)/file", To: "usr/file"}},
	}
	assert.Error(t, p.Validate())
}

func TestParsePermissionMode(t *testing.T) {
	m, err := parts.ParsePermissionMode("755")
	assert.NoError(t, err)
	assert.Equal(t, uint32(0o755), m)

	_, err = parts.ParsePermissionMode("abc")
	assert.Error(t, err)
}
