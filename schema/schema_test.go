package schema

import (
	"errors"
	"math"
	"testing"

	"github.com/xraph/keeper/access"
)

func userList() *List {
	return &List{
		Name:       UserList,
		LabelField: "name",
		Fields: []Field{
			{Name: "name", Type: Text},
			{Name: "email", Type: Text, IsUnique: true},
			{Name: "password", Type: Password, IsRequired: true},
			{Name: "isAdmin", Type: Checkbox},
		},
		Access: access.UserTable(),
	}
}

func folderLists() (*List, *List) {
	folder := &List{
		Name:    "Folder",
		Ownable: true,
		Fields: []Field{
			{Name: "title", Type: Text},
			{Name: "user", Type: Relationship, Ref: UserList},
			{Name: "files", Type: Relationship, Ref: "File.folder", Many: true},
		},
		Access: access.OwnableTable(),
	}
	file := &List{
		Name:    "File",
		Ownable: true,
		Fields: []Field{
			{Name: "user", Type: Relationship, Ref: UserList},
			{Name: "folder", Type: Relationship, Ref: "Folder.files"},
			{Name: "size", Type: Integer},
		},
		Access: access.OwnableTable(),
	}
	return folder, file
}

func TestRegistryTwoSidedRelationship(t *testing.T) {
	reg := NewRegistry()
	folder, file := folderLists()
	for _, l := range []*List{userList(), folder, file} {
		if err := reg.Register(l); err != nil {
			t.Fatal(err)
		}
	}
	if err := reg.Validate(); err != nil {
		t.Fatal(err)
	}

	files, _ := folder.Field("files")
	if !files.Derived {
		t.Fatal("expected many side to be derived")
	}
	fwd, _ := file.Field("folder")
	if fwd.Derived {
		t.Fatal("expected forward side to be stored")
	}

	backs := reg.BackReferences("File")
	if bf, ok := backs["folder"]; !ok || bf.Name != "files" {
		t.Fatalf("expected folder -> files back reference, got %v", backs)
	}
	if got := len(reg.Lists()); got != 3 {
		t.Fatalf("expected 3 lists, got %d", got)
	}
}

func TestRegistryRejectsBadDeclarations(t *testing.T) {
	tests := []struct {
		name string
		list *List
		want error
	}{
		{"no name", &List{Access: access.OwnableTable()}, ErrInvalidList},
		{"missing rule", &List{Name: "A", Access: access.Table{Read: access.IsAdministratorOrOwner}}, ErrInvalidList},
		{"bad type", &List{Name: "A", Fields: []Field{{Name: "x", Type: "Blob"}}, Access: access.OwnableTable()}, ErrInvalidList},
		{"select without options", &List{Name: "A", Fields: []Field{{Name: "x", Type: Select}}, Access: access.OwnableTable()}, ErrInvalidList},
		{"ownable without owner", &List{Name: "A", Ownable: true, Access: access.OwnableTable()}, ErrInvalidList},
		{"duplicate field", &List{Name: "A", Fields: []Field{{Name: "x", Type: Text}, {Name: "x", Type: Text}}, Access: access.OwnableTable()}, ErrInvalidList},
		{"unknown label field", &List{Name: "A", LabelField: "nope", Access: access.OwnableTable()}, ErrInvalidList},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewRegistry().Register(tt.list)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestRegistryDuplicateAndUnresolved(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(userList()); err != nil {
		t.Fatal(err)
	}
	if err := reg.Register(userList()); !errors.Is(err, ErrDuplicateList) {
		t.Fatalf("expected ErrDuplicateList, got %v", err)
	}
	_, file := folderLists()
	if err := reg.Register(file); err != nil {
		t.Fatal(err)
	}
	if err := reg.Validate(); !errors.Is(err, ErrInvalidList) {
		t.Fatalf("expected unresolved ref error, got %v", err)
	}
	if _, err := reg.Get("Folder"); !errors.Is(err, ErrListNotFound) {
		t.Fatalf("expected ErrListNotFound, got %v", err)
	}
}

func TestNormalize(t *testing.T) {
	reg := NewRegistry()
	folder, file := folderLists()
	_ = reg.Register(userList())
	_ = reg.Register(folder)
	_ = reg.Register(file)
	if err := reg.Validate(); err != nil {
		t.Fatal(err)
	}

	got, err := file.Normalize(map[string]any{"size": float64(3), "folder": "f1"}, false)
	if err != nil {
		t.Fatal(err)
	}
	if got["size"] != int64(3) {
		t.Fatalf("expected int64 size, got %T", got["size"])
	}
	got, err = file.Normalize(map[string]any{"size": float64(1 << 53)}, false)
	if err != nil || got["size"] != int64(1<<53) {
		t.Fatalf("expected 2^53 to be accepted, got %v, %v", got["size"], err)
	}

	cases := []struct {
		name   string
		list   *List
		fields map[string]any
		want   error
	}{
		{"unknown", file, map[string]any{"color": "red"}, ErrUnknownField},
		{"fractional integer", file, map[string]any{"size": 1.5}, ErrInvalidValue},
		{"integer above 2^53", file, map[string]any{"size": float64(1 << 60)}, ErrInvalidValue},
		{"integer below -2^53", file, map[string]any{"size": -1e300}, ErrInvalidValue},
		{"infinite integer", file, map[string]any{"size": math.Inf(1)}, ErrInvalidValue},
		{"int64 above 2^53", file, map[string]any{"size": int64(1<<53 + 1)}, ErrInvalidValue},
		{"derived", folder, map[string]any{"files": []any{"a"}}, ErrReadOnlyField},
		{"required", userList(), map[string]any{"name": "ann"}, ErrRequiredField},
		{"wrong type", userList(), map[string]any{"password": "x", "isAdmin": "yes"}, ErrInvalidValue},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.list.Normalize(tt.fields, false); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}

	if _, err := userList().Normalize(map[string]any{"name": "ann"}, true); err != nil {
		t.Fatalf("partial update should skip required fields: %v", err)
	}
}

func TestLabelFor(t *testing.T) {
	l := &List{Name: "Shop", LabelField: "name"}
	if got := l.LabelFor("s1", map[string]any{"name": "Corner"}); got != "Corner" {
		t.Fatalf("expected field label, got %q", got)
	}
	if got := l.LabelFor("s1", nil); got != "s1" {
		t.Fatalf("expected id fallback, got %q", got)
	}
	static := &List{Name: "Match", Label: "Match"}
	if got := static.LabelFor("m1", nil); got != "Match" {
		t.Fatalf("expected static label, got %q", got)
	}
}

func TestRefIDs(t *testing.T) {
	if got := RefIDs("a"); len(got) != 1 || got[0] != "a" {
		t.Fatalf("unexpected %v", got)
	}
	if got := RefIDs([]any{"a", "b"}); len(got) != 2 {
		t.Fatalf("unexpected %v", got)
	}
	if got := RefIDs(nil); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}
