package hosted

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
)

// UpdateEnvFile sets key to value in the dotenv file at path, keeping every
// other entry. The file is created if it does not exist.
func UpdateEnvFile(path, key, value string) error {
	env, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		env = map[string]string{}
	} else if err != nil {
		return err
	}
	env[key] = value
	return godotenv.Write(env, path)
}
