package models

import (
	"encoding/json"
	"testing"
)

func TestBlogPostDecodesCanonicalShape(t *testing.T) {
	raw := `{"_id":"66a1","slug":"hello-world","title":"Hello","content":"<p>x</p>","images":["/uploads/a.jpg",null,"/uploads/c.jpg"]}`

	var p BlogPost
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if p.ID != "66a1" || p.Slug != "hello-world" || p.Content != "<p>x</p>" {
		t.Fatalf("decoded %+v", p)
	}
	if len(p.Images) != 2 {
		t.Fatalf("null image slots must be dropped, got %v", p.Images)
	}
	if p.Ref() != "hello-world" {
		t.Fatalf("Ref = %q", p.Ref())
	}
}

func TestBlogPostDecodesLegacyShape(t *testing.T) {
	raw := `{"id":"42","title":"Old","readTime":"5 min"}`

	var p BlogPost
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if p.ID != "42" || p.LegacyReadTime != "5 min" {
		t.Fatalf("decoded %+v", p)
	}
	if p.Ref() != "42" {
		t.Fatalf("Ref = %q", p.Ref())
	}

	out, _ := json.Marshal(p)
	var m map[string]any
	_ = json.Unmarshal(out, &m)
	if _, ok := m["readTime"]; ok {
		t.Fatal("legacy readTime must not be encoded")
	}
}

func TestBlogDraftValidate(t *testing.T) {
	d := BlogDraft{Title: "  T ", Summary: "S", Author: ""}
	if err := d.Validate(); err == nil {
		t.Fatal("missing author accepted")
	}

	d.Author = "Ada"
	d.Images = make([]ImageUpload, 4)
	if err := d.Validate(); err == nil {
		t.Fatal("4 images accepted")
	}

	d.Images = d.Images[:3]
	if err := d.Validate(); err != nil {
		t.Fatalf("valid draft rejected: %v", err)
	}
	if d.Title != "T" {
		t.Fatalf("title not trimmed: %q", d.Title)
	}
}

func TestJobInputPayloadStripsEmpty(t *testing.T) {
	in := JobInput{Title: "Engineer", Department: "IT", SalaryRange: " "}
	if err := in.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	p := in.Payload()
	if len(p) != 2 || p["title"] != "Engineer" || p["department"] != "IT" {
		t.Fatalf("Payload = %v", p)
	}
}

func TestJobInputDeadline(t *testing.T) {
	in := JobInput{Title: "x", Deadline: "31/12/2026"}
	if err := in.Validate(); err == nil {
		t.Fatal("non-ISO deadline accepted")
	}
	in.Deadline = "2026-12-31"
	if err := in.Validate(); err != nil {
		t.Fatalf("ISO deadline rejected: %v", err)
	}
}

func TestJobRefAcceptsStringOrObject(t *testing.T) {
	var a Application
	if err := json.Unmarshal([]byte(`{"_id":"1","job":"j9","status":"Pending"}`), &a); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if a.Job.ID != "j9" {
		t.Fatalf("job ref = %+v", a.Job)
	}

	if err := json.Unmarshal([]byte(`{"_id":"1","job":{"_id":"j1","title":"QA"}}`), &a); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if a.Job.ID != "j1" || a.Job.Title != "QA" {
		t.Fatalf("job ref = %+v", a.Job)
	}
}

func TestApplicationStatus(t *testing.T) {
	for _, s := range ApplicationStatuses {
		if !s.Valid() {
			t.Fatalf("%s not valid", s)
		}
	}
	if ApplicationStatus("Hired").Valid() {
		t.Fatal("unknown status accepted")
	}
	if !StatusRejected.IsDecision() || StatusReviewed.IsDecision() {
		t.Fatal("IsDecision wrong")
	}
	if err := (StatusUpdate{Status: "pending"}).Validate(); err == nil {
		t.Fatal("status is case sensitive")
	}
}

func TestCreateUserRequestValidate(t *testing.T) {
	r := CreateUserRequest{Name: "Ada", Email: "ada@", Password: "secret1"}
	if err := r.Validate(); err == nil {
		t.Fatal("bad email accepted")
	}
	r.Email = "ada@orrelng.com"
	r.Password = "123"
	if err := r.Validate(); err == nil {
		t.Fatal("short password accepted")
	}
	r.Password = "123456"
	if err := r.Validate(); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}
}
