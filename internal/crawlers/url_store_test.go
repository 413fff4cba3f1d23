package crawlers

import (
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/RecoveryAshes/scrapdynamics/internal/models"
)

func newTestStore(t *testing.T) *URLStore {
	t.Helper()
	store, err := NewURLStoreFromSettings(models.DefaultCrawlSettings())
	if err != nil {
		t.Fatalf("NewURLStoreFromSettings() error = %v", err)
	}
	return store
}

func TestURLStore_Add(t *testing.T) {
	store := newTestStore(t)

	page := `<title>Home</title><a href="/about">x</a><a href="//cdn.example.org/app">y</a> contact@example.org`
	added, err := store.Add("https://www.example.org", page)
	if err != nil || !added {
		t.Fatalf("Add() = %v, %v; want true, nil", added, err)
	}

	records := store.Records()
	if len(records) != 1 {
		t.Fatalf("记录数 = %d, want 1", len(records))
	}
	r := records[0]
	if r.Domain != "example.org" {
		t.Errorf("Domain = %q, want example.org", r.Domain)
	}
	wantLinks := []string{"https://example.org/about", "https://cdn.example.org/app"}
	if !reflect.DeepEqual(r.Links, wantLinks) {
		t.Errorf("Links = %q, want %q", r.Links, wantLinks)
	}
	if !reflect.DeepEqual(r.Extractions["emails"], []string{"contact@example.org"}) {
		t.Errorf("emails = %q", r.Extractions["emails"])
	}
	if phones, ok := r.Extractions["phones"]; !ok || len(phones) != 0 {
		t.Errorf("phones应为空列表且存在, got %q (exists=%v)", phones, ok)
	}
}

func TestURLStore_AddIdempotent(t *testing.T) {
	store := newTestStore(t)

	if added, _ := store.Add("https://example.org/p", `<title>first</title>`); !added {
		t.Fatal("第一次Add应返回true")
	}
	added, err := store.Add("https://example.org/p", `<title>second</title>`)
	if err != nil || added {
		t.Fatalf("重复Add() = %v, %v; want false, nil", added, err)
	}
	if store.Len() != 1 {
		t.Errorf("Len() = %d, want 1", store.Len())
	}
	if got := store.Records()[0].Extractions["title"]; !reflect.DeepEqual(got, []string{"first"}) {
		t.Errorf("记录被覆盖: title = %q", got)
	}
}

func TestURLStore_AddMalformed(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Add("example.org/no-scheme", "")
	var malformed *models.MalformedURLError
	if !errors.As(err, &malformed) {
		t.Fatalf("期望MalformedURLError, got %v", err)
	}
	if store.Len() != 0 || store.Has("example.org/no-scheme") {
		t.Error("失败的Add不应写入记录")
	}
}

func TestURLStore_Frontier(t *testing.T) {
	store := newTestStore(t)

	store.Add("https://example.org", `<a href="/one">1</a><a href="/two">2</a>`)
	store.Add("https://example.org/one", `<a href="/two">2</a><a href="https://other.org/x">3</a>`)
	store.Add("https://example.org/empty", `nothing here`)

	got := store.Frontier()
	want := []string{
		"https://example.org/one",
		"https://example.org/two",
		"https://example.org/two",
		"https://other.org/x",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Frontier() = %q, want %q", got, want)
	}
}

func TestURLStore_ConcurrentAdd(t *testing.T) {
	store := newTestStore(t)

	const workers = 32
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			added, err := store.Add("https://example.org/same", `<a href="/next">n</a>`)
			if err != nil {
				t.Errorf("Add() error = %v", err)
				return
			}
			if added {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if winners != 1 {
		t.Errorf("成功写入次数 = %d, want 1", winners)
	}
	if store.Len() != 1 {
		t.Errorf("Len() = %d, want 1", store.Len())
	}
}

func TestURLStore_Project(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.Project(); !errors.As(err, new(*models.EmptyResultError)) {
		t.Fatalf("空账本投影应返回EmptyResultError, got %v", err)
	}

	store.Add("https://example.org", `<title>Home</title><a href="/aa">a</a><a href="/bb">b</a>`)
	table, err := store.Project()
	if err != nil {
		t.Fatalf("Project() error = %v", err)
	}
	if got := table.Data["links"][0]; got != "https://example.org/aa, https://example.org/bb" {
		t.Errorf("links = %q", got)
	}
}
