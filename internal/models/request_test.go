package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListWorksRequest_Normalize(t *testing.T) {
	r := &ListWorksRequest{}
	r.Normalize()
	assert.Equal(t, 1, r.Page)
	assert.Equal(t, DefaultPageSize, r.PageSize)
	assert.Equal(t, "newest", r.Sort)

	r = &ListWorksRequest{Page: -3, PageSize: 5000, Sort: "random"}
	r.Normalize()
	assert.Equal(t, 1, r.Page)
	assert.Equal(t, MaxPageSize, r.PageSize)
	assert.Equal(t, "newest", r.Sort)

	r = &ListWorksRequest{Sort: "title", Page: 2, PageSize: 10}
	r.Normalize()
	assert.Equal(t, "title", r.Sort)
	assert.Equal(t, 2, r.Page)
}

func TestListWorksRequest_Validate(t *testing.T) {
	assert.NoError(t, (&ListWorksRequest{}).Validate())
	assert.NoError(t, (&ListWorksRequest{Genre: GenrePoem, Status: StatusDraft}).Validate())
	assert.Error(t, (&ListWorksRequest{Genre: "opera"}).Validate())
	assert.Error(t, (&ListWorksRequest{Status: "archived"}).Validate())
}

func TestSaveWorkRequest_Validate(t *testing.T) {
	valid := SaveWorkRequest{Title: "Bài thơ", Slug: "bai-tho", Genre: GenrePoem}
	assert.NoError(t, valid.Validate())

	missingSlug := valid
	missingSlug.Slug = ""
	assert.Error(t, missingSlug.Validate())

	missingGenre := valid
	missingGenre.Genre = ""
	assert.Error(t, missingGenre.Validate())

	unknownGenre := valid
	unknownGenre.Genre = "opera"
	assert.Error(t, unknownGenre.Validate())

	badStatus := valid
	badStatus.Status = "archived"
	assert.Error(t, badStatus.Validate())

	// Photos and videos may omit the title.
	noTitlePhoto := SaveWorkRequest{Slug: "anh", Genre: GenrePhoto}
	assert.NoError(t, noTitlePhoto.Validate())
	noTitlePoem := SaveWorkRequest{Slug: "tho", Genre: GenrePoem}
	assert.Error(t, noTitlePoem.Validate())
}

func TestCreateCommentRequest_Validate(t *testing.T) {
	valid := CreateCommentRequest{WorkID: "work-1", Content: "hay quá"}
	assert.NoError(t, valid.Validate())

	assert.Error(t, (&CreateCommentRequest{Content: "x"}).Validate(), "missing work id")
	assert.Error(t, (&CreateCommentRequest{WorkID: strings.Repeat("a", MaxWorkIDLength+1), Content: "x"}).Validate())
	assert.Error(t, (&CreateCommentRequest{WorkID: "w", Content: "   "}).Validate())

	long := CreateCommentRequest{WorkID: "w", Content: strings.Repeat("â", MaxCommentLength+1)}
	assert.Error(t, long.Validate())
	atLimit := CreateCommentRequest{WorkID: "w", Content: strings.Repeat("â", MaxCommentLength)}
	assert.NoError(t, atLimit.Validate())

	longName := CreateCommentRequest{WorkID: "w", Content: "x", Name: strings.Repeat("ă", MaxCommentNameLength+1)}
	assert.Error(t, longName.Validate())
}

func TestCreateCommentRequest_Sanitize(t *testing.T) {
	r := &CreateCommentRequest{
		WorkID:  "w",
		Name:    "<b>Minh</b>",
		Content: "<script>alert(1)</script>hay quá",
	}
	require.NoError(t, r.Sanitize())
	assert.Equal(t, "Minh", r.Name)
	assert.Equal(t, "alert(1)hay quá", r.Content)

	anon := &CreateCommentRequest{WorkID: "w", Content: "tuyệt"}
	require.NoError(t, anon.Sanitize())
	assert.Equal(t, AnonymousName, anon.Name)

	onlyTags := &CreateCommentRequest{WorkID: "w", Content: "<img src=x>"}
	assert.Error(t, onlyTags.Sanitize())
}

func TestStripHTML(t *testing.T) {
	assert.Equal(t, "xin chào", StripHTML("<p>xin chào</p>"))
	assert.Equal(t, "a b", StripHTML("a <br/> b"))
	assert.Equal(t, "", StripHTML("<div></div>"))
	assert.Equal(t, "không có thẻ", StripHTML("không có thẻ"))
}

func TestLoginRequest_Validate(t *testing.T) {
	assert.NoError(t, (&LoginRequest{Email: "a@b.c", Password: "x"}).Validate())
	assert.Error(t, (&LoginRequest{Email: "a@b.c"}).Validate())
	assert.Error(t, (&LoginRequest{Password: "x"}).Validate())
}
