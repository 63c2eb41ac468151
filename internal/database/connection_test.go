package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewConnection_RequiresURL(t *testing.T) {
	db, err := NewConnection("", DefaultPool())
	assert.Nil(t, db)
	assert.Error(t, err)
}
