package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/models"
)

func TestGalleryCRUD(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	g := &models.GalleryItem{Title: "До/после", Image: "/uploads/result.jpg"}
	require.NoError(t, db.CreateGalleryItem(ctx, g))

	items, err := db.ListGallery(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)

	g.Title = "Результат процедуры"
	require.NoError(t, db.UpdateGalleryItem(ctx, g))

	require.NoError(t, db.DeleteGalleryItem(ctx, g.ID))
	items, err = db.ListGallery(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestTeamMembersSortedByOrder(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.CreateTeamMember(ctx, &models.TeamMember{Name: "Второй", SortOrder: 2}))
	require.NoError(t, db.CreateTeamMember(ctx, &models.TeamMember{Name: "Первый", SortOrder: 1}))

	members, err := db.ListTeamMembers(ctx)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "Первый", members[0].Name)
}

func TestFooterLinksUpsert(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	// До первой записи строки настроек нет
	_, err := db.GetFooterLinks(ctx)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, db.UpsertFooterLinks(ctx, &models.FooterLinks{Instagram: "https://instagram.com/clinic"}))
	require.NoError(t, db.UpsertFooterLinks(ctx, &models.FooterLinks{Instagram: "https://instagram.com/clinic2", Telegram: "https://t.me/clinic"}))

	links, err := db.GetFooterLinks(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://instagram.com/clinic2", links.Instagram)
	assert.Equal(t, "https://t.me/clinic", links.Telegram)
}

func TestMainContentAdvantagesRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	m := &models.MainContent{
		AboutTitle:      "О враче",
		AboutAdvantages: []string{"Опыт 10 лет", "Сертификаты"},
	}
	require.NoError(t, db.UpsertMainContent(ctx, m))

	got, err := db.GetMainContent(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Опыт 10 лет", "Сертификаты"}, got.AboutAdvantages)
}

func TestEducationWithPhotos(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	e := &models.Education{Title: "Ординатура"}
	require.NoError(t, db.CreateEducation(ctx, e))

	require.NoError(t, db.CreateEducationPhoto(ctx, &models.EducationPhoto{EducationID: e.ID, PhotoURL: "/uploads/d1.jpg"}))
	require.NoError(t, db.CreateEducationPhoto(ctx, &models.EducationPhoto{EducationID: e.ID, PhotoURL: "/uploads/d2.jpg"}))

	photos, err := db.ListEducationPhotos(ctx, e.ID)
	require.NoError(t, err)
	assert.Len(t, photos, 2)

	// Удаление блока каскадно убирает фотографии
	require.NoError(t, db.DeleteEducation(ctx, e.ID))
	photos, err = db.ListEducationPhotos(ctx, e.ID)
	require.NoError(t, err)
	assert.Empty(t, photos)
}
