package storage

import "errors"

var errDuplicateID = errors.New("duplicate task id")
