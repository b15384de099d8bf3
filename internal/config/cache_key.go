package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// UserSessionKey returns the cache key for a user's login session
func (r *CacheKeyStruct) UserSessionKey(userID int) string {
	return fmt.Sprintf("login:%d", userID)
}

// QuestionBankKey returns the cache key for a cached question bank
func (r *CacheKeyStruct) QuestionBankKey(university, subject string) string {
	return fmt.Sprintf("bank:%s:%s:questions", university, subject)
}

// SubjectListKey returns the cache key for a university's subject list
func (r *CacheKeyStruct) SubjectListKey(university string) string {
	return fmt.Sprintf("university:%s:subjects", university)
}

var CacheKey = NewCacheKeyStruct()
