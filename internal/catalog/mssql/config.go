package mssql

import (
	"fmt"
	"net/url"
)

// Config holds the connection parameters for one SQL Server database.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	DbName   string
}

func buildDSN(config Config) string {
	query := url.Values{}
	query.Add("database", config.DbName)

	u := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(config.User, config.Password),
		Host:     fmt.Sprintf("%s:%d", config.Host, config.Port),
		RawQuery: query.Encode(),
	}
	return u.String()
}
