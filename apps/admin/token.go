package main

import (
	"fmt"

	echoapi "github.com/edulytics/backend/apps/api/echo"
)

// token mints an API JWT for an operator or dashboard user. Course
// permissions are not embedded: they are resolved from the LMS on request.
func (cli *commandLine) token(username string) error {
	token, err := echoapi.GenerateToken(cli.conf, echoapi.NewClaims(cli.conf, username))
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
