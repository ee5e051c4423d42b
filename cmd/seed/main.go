// Package main seeds a fresh database with the site's baseline content:
// the admin account, the author profile, genre display rows, tags,
// collections and a handful of published works. Every step is idempotent,
// so the binary can run on each deploy.
//
// With -reset-password the admin password is re-hashed from the
// ADMIN_PASSWORD environment variable and any login lockout is cleared.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/vietdungregister/nthl/internal/config"
	"github.com/vietdungregister/nthl/internal/models"
	"github.com/vietdungregister/nthl/internal/storage"
)

var (
	configFile    = flag.String("config", "", "Path to configuration file")
	resetPassword = flag.Bool("reset-password", false, "Reset the admin password from ADMIN_PASSWORD and clear any lockout")
)

const defaultAdminEmail = "admin@nguyenthehoanglinh.vn"

func main() {
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	store, err := storage.NewStorage(ctx, cfg.Storage)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if *resetPassword {
		if err := resetAdminPassword(ctx, store); err != nil {
			slog.Error("Failed to reset admin password", "error", err)
			os.Exit(1)
		}
		return
	}

	steps := []struct {
		name string
		run  func(context.Context, storage.Storage) error
	}{
		{"admin user", seedAdminUser},
		{"author profile", seedAuthorProfile},
		{"genres", seedGenres},
		{"tags", seedTags},
		{"collections", seedCollections},
		{"works", seedWorks},
	}
	for _, step := range steps {
		if err := step.run(ctx, store); err != nil {
			slog.Error("Seed step failed", "step", step.name, "error", err)
			os.Exit(1)
		}
		slog.Info("Seed step complete", "step", step.name)
	}
}

func adminCredentials() (string, string) {
	email := os.Getenv("ADMIN_EMAIL")
	if email == "" {
		email = defaultAdminEmail
	}
	return email, os.Getenv("ADMIN_PASSWORD")
}

func seedAdminUser(ctx context.Context, store storage.Storage) error {
	email, password := adminCredentials()
	if password == "" {
		slog.Warn("ADMIN_PASSWORD is not set; skipping admin user seed")
		return nil
	}

	if _, err := store.GetAdminUserByEmail(ctx, email); err == nil {
		return nil
	}

	user := &models.AdminUser{
		ID:        uuid.New().String(),
		Email:     email,
		CreatedAt: time.Now(),
	}
	if err := user.SetPassword(password); err != nil {
		return err
	}
	return store.CreateAdminUser(ctx, user)
}

func resetAdminPassword(ctx context.Context, store storage.Storage) error {
	email, password := adminCredentials()
	if password == "" {
		slog.Error("ADMIN_PASSWORD must be set with -reset-password")
		os.Exit(1)
	}

	user, err := store.GetAdminUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	if err := user.SetPassword(password); err != nil {
		return err
	}
	user.LoginAttempts = 0
	user.LockUntil = nil
	if err := store.UpdateAdminUser(ctx, user); err != nil {
		return err
	}
	slog.Info("Admin password reset", "email", email)
	return nil
}

func seedAuthorProfile(ctx context.Context, store storage.Storage) error {
	if profile, err := store.GetAuthorProfile(ctx); err == nil && profile.Name != "" {
		return nil
	}

	return store.SaveAuthorProfile(ctx, &models.AuthorProfile{
		Name:     "Nguyễn Thế Hoàng Linh",
		BioShort: `Nhà thơ, nhà văn — "Thi tài tuổi 20"`,
		Bio: `Nguyễn Thế Hoàng Linh (sinh năm 1982 tại Hà Nội) là nhà thơ, nhà văn Việt Nam được giới phê bình mệnh danh là "Thi tài tuổi 20".

Năm 2004, tiểu thuyết "Chuyện của thiên tài" đoạt Giải thưởng Hội Nhà văn Hà Nội.

Phong cách thơ giản dị đến mức cổ điển, đôi khi đùa cợt nhưng chứa đựng triết lý sâu sắc.`,
		SocialLinks: `{"facebook":"https://www.facebook.com/nguyenthehoanglinh"}`,
		Awards: `[{"title":"Giải thưởng Hội Nhà văn Hà Nội","year":2004,"description":"Tiểu thuyết \"Chuyện của thiên tài\""},` +
			`{"title":"Tác phẩm vào SGK lớp 6","year":2021,"description":"Bài thơ \"Bắt nạt\""}]`,
		Publications: `[{"title":"Mầm sống"},{"title":"Uống một ngụm nước biển"},{"title":"Lẽ giản đơn","year":2006},` +
			`{"title":"Hở","year":2011},{"title":"Mật thư","year":2012},{"title":"Em giấu gì ở trong lòng thế","year":2013},` +
			`{"title":"Ra vườn nhặt nắng","year":2015},{"title":"Chuyện của thiên tài","year":2004}]`,
	})
}

func seedGenres(ctx context.Context, store storage.Storage) error {
	genres := []*models.Genre{
		{Value: models.GenrePoem, Label: "Thơ", Emoji: "📝", Order: 1},
		{Value: models.GenreNovel, Label: "Tiểu thuyết", Emoji: "📖", Order: 2},
		{Value: models.GenreEssay, Label: "Tiểu luận", Emoji: "📄", Order: 3},
		{Value: models.GenreProse, Label: "Tùy bút", Emoji: "✍️", Order: 4},
		{Value: models.GenrePainting, Label: "Tranh", Emoji: "🎨", Order: 5},
		{Value: models.GenrePhoto, Label: "Ảnh", Emoji: "📷", Order: 6},
		{Value: models.GenreVideo, Label: "Video", Emoji: "🎬", Order: 7},
	}
	for _, g := range genres {
		g.ID = uuid.New().String()
		if err := store.SaveGenre(ctx, g); err != nil {
			return err
		}
	}
	return nil
}

func seedTags(ctx context.Context, store storage.Storage) error {
	tags := []struct{ name, slug string }{
		{"Tình yêu", "tinh-yeu"},
		{"Cuộc sống", "cuoc-song"},
		{"Thiếu nhi", "thieu-nhi"},
		{"Triết lý", "triet-ly"},
		{"Thiên nhiên", "thien-nhien"},
		{"Nỗi buồn", "noi-buon"},
		{"Hạnh phúc", "hanh-phuc"},
		{"Gia đình", "gia-dinh"},
		{"Tuổi trẻ", "tuoi-tre"},
		{"Cô đơn", "co-don"},
	}

	existing, err := store.ListTags(ctx)
	if err != nil {
		return err
	}
	present := make(map[string]bool, len(existing))
	for _, t := range existing {
		present[t.Slug] = true
	}

	for _, t := range tags {
		if present[t.slug] {
			continue
		}
		tag := &models.Tag{ID: uuid.New().String(), Name: t.name, Slug: t.slug}
		if err := store.CreateTag(ctx, tag); err != nil {
			return err
		}
	}
	return nil
}

func seedCollections(ctx context.Context, store storage.Storage) error {
	cols := []struct {
		title, slug, description string
	}{
		{"Ra vườn nhặt nắng", "ra-vuon-nhat-nang", "Tập thơ thiếu nhi, 2015"},
		{"Em giấu gì ở trong lòng thế", "em-giau-gi-o-trong-long-the", "Thơ tình chép tay, 2013"},
		{"Mật thư", "mat-thu", "Tập thơ 2012"},
		{"Chuyện của thiên tài", "chuyen-cua-thien-tai", "Tiểu thuyết đoạt giải 2004"},
	}

	existing, err := store.ListCollections(ctx)
	if err != nil {
		return err
	}
	present := make(map[string]bool, len(existing))
	for _, c := range existing {
		present[c.Slug] = true
	}

	for i, c := range cols {
		if present[c.slug] {
			continue
		}
		col := &models.Collection{
			ID:          uuid.New().String(),
			Title:       c.title,
			Slug:        c.slug,
			Description: c.description,
			Order:       i,
		}
		if err := store.CreateCollection(ctx, col); err != nil {
			return err
		}
	}
	return nil
}

type seedWork struct {
	title, slug, genre, content, excerpt string
	featured                             bool
	tagSlugs                             []string
	colSlugs                             []string
}

func seedWorks(ctx context.Context, store storage.Storage) error {
	works := []seedWork{
		{
			title: "Bắt nạt", slug: "bat-nat", genre: models.GenrePoem, featured: true,
			content: "Bắt nạt là xấu lắm\nĐừng bắt nạt bạn ơi\nBất cứ ai trên đời\nĐều không cần bắt nạt\n\n" +
				"Sao không thử giật nắng\nBắt mưa bắt gió đi\nSao không vật tay xem\nAi cổ tay khỏe hơn\n\n" +
				"Đừng bắt nạt bạn nào\nDù là ai đi nữa\nĐừng bắt nạt cây hoa\nĐừng bắt nạt tiếng Việt",
			excerpt:  "Bắt nạt là xấu lắm / Đừng bắt nạt bạn ơi...",
			tagSlugs: []string{"thieu-nhi", "cuoc-song"},
			colSlugs: []string{"ra-vuon-nhat-nang"},
		},
		{
			title: "Ra vườn nhặt nắng", slug: "ra-vuon-nhat-nang", genre: models.GenrePoem, featured: true,
			content: "Ông mặc áo nâu\nRa vườn nhặt nắng\nÔng nhặt nhặt hoài\nNắng rơi đầy lối\n\n" +
				"Bà xách rổ ra\nNhặt nắng cùng ông\nNắng bay vào rổ\nVàng ươm vàng ươm\n\n" +
				"Cháu chạy ra vườn\nCháu cuộn trong nắng\nÔng bà nhìn cháu\nCười hiền cười hiền",
			excerpt:  "Ông mặc áo nâu / Ra vườn nhặt nắng...",
			tagSlugs: []string{"thieu-nhi", "gia-dinh"},
			colSlugs: []string{"ra-vuon-nhat-nang"},
		},
		{
			title: "Giá mà được chết đi một lúc", slug: "gia-ma-duoc-chet-di-mot-luc", genre: models.GenrePoem, featured: true,
			content: "Giá mà được chết đi một lúc\nrồi sống lại\nthì tốt\n\n" +
				"Chết đi cho bớt mệt\nsống lại cho bớt nhớ\n\nChết đi thì yên ổn\nsống lại thì vui thôi",
			excerpt:  "Giá mà được chết đi một lúc...",
			tagSlugs: []string{"triet-ly", "noi-buon"},
		},
		{
			title: "Lẽ giản đơn", slug: "le-gian-don", genre: models.GenrePoem, featured: true,
			content: "Cái gì cũng từ\ncái giản đơn nhất\nmà nên\n\n" +
				"Tình yêu\ntừ một cái nhìn\nMùa xuân\ntừ một cành xanh\n\n" +
				"Còn hạnh phúc\ntừ khi biết mình\nđang hạnh phúc",
			excerpt:  "Cái gì cũng từ cái giản đơn nhất mà nên...",
			tagSlugs: []string{"triet-ly", "hanh-phuc"},
		},
		{
			title: "Cảm ơn", slug: "cam-on", genre: models.GenrePoem,
			content: "Cảm ơn bạn\nvì đã là bạn\nchứ không phải ai khác\n\n" +
				"Cảm ơn tôi\nvì đã là tôi\nchứ không phải ai khác",
			excerpt:  "Cảm ơn bạn / vì đã là bạn...",
			tagSlugs: []string{"hanh-phuc", "cuoc-song"},
		},
	}

	tags, err := store.ListTags(ctx)
	if err != nil {
		return err
	}
	tagBySlug := make(map[string]*models.Tag, len(tags))
	for _, t := range tags {
		tagBySlug[t.Slug] = t
	}

	cols, err := store.ListCollections(ctx)
	if err != nil {
		return err
	}
	colBySlug := make(map[string]*models.Collection, len(cols))
	for _, c := range cols {
		colBySlug[c.Slug] = c
	}

	now := time.Now()
	for _, w := range works {
		if _, err := store.GetWorkBySlug(ctx, w.slug); err == nil {
			continue
		}

		work := &models.Work{
			ID:          uuid.New().String(),
			Title:       w.title,
			Slug:        w.slug,
			Genre:       w.genre,
			Content:     w.content,
			Excerpt:     w.excerpt,
			Status:      models.StatusPublished,
			IsFeatured:  w.featured,
			PublishedAt: &now,
		}
		for _, slug := range w.tagSlugs {
			if t, ok := tagBySlug[slug]; ok {
				work.Tags = append(work.Tags, t)
			}
		}
		for _, slug := range w.colSlugs {
			if c, ok := colBySlug[slug]; ok {
				work.Collections = append(work.Collections, c)
			}
		}
		if err := store.CreateWork(ctx, work); err != nil {
			return err
		}
	}
	return nil
}
