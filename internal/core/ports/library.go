package ports

// MediaLibrary enumerates audio assets in a catalog directory.
// List returns bare file names and domain.ErrNotFound when the directory
// does not exist.
type MediaLibrary interface {
	List(path string) ([]string, error)
}
