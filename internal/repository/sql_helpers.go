package repository

import (
	"fmt"
	"strconv"
)

func sprintfPlaceholder(fragment, placeholder string) string {
	return fmt.Sprintf(fragment, placeholder)
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
