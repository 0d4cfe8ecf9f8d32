package file

import "errors"

// ErrEmptyDocument reports a document that produced no indexable text.
var ErrEmptyDocument = errors.New("document contains no extractable text")
