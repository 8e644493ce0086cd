package redis

const (
	// KeyPrefix namespaces every key this service writes.
	KeyPrefix = "toolshelf:"
	// KeyKnownCategories holds the JSON-encoded known-category list.
	KeyKnownCategories = KeyPrefix + "categories:known"
)
