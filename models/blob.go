package models

import "io"

type Blob struct {
	Key        string
	ReadCloser io.ReadCloser
}
