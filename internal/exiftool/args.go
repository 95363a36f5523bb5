package exiftool

// DefaultExecutable is the tool name looked up in PATH
const DefaultExecutable = "exiftool"

const overwriteFlag = "-overwrite_original"

// ReadAllArgs requests every tag of path as one JSON record
func ReadAllArgs(path string) []string {
	return []string{"-json", path}
}

// SetTagArgs writes key=value in place
func SetTagArgs(path, key, value string, keepBackup bool) []string {
	return writeArgs(keepBackup, "-"+key+"="+value, path)
}

// DeleteTagArgs clears key in place
func DeleteTagArgs(path, key string, keepBackup bool) []string {
	return writeArgs(keepBackup, "-"+key+"=", path)
}

// CopyTagArgs copies the value of from into to
func CopyTagArgs(path, from, to string, keepBackup bool) []string {
	return writeArgs(keepBackup, "-"+to+"<="+from, path)
}

// ClearAllArgs clears every writable tag in place
func ClearAllArgs(path string, keepBackup bool) []string {
	return writeArgs(keepBackup, "-all=", path)
}

// ExportArgs writes a copy of src, metadata included, to dst
func ExportArgs(src, dst string, keepBackup bool) []string {
	return writeArgs(keepBackup, "-o", dst, src)
}

// VersionArgs asks for the tool version
func VersionArgs() []string {
	return []string{"-ver"}
}

func writeArgs(keepBackup bool, rest ...string) []string {
	args := make([]string, 0, len(rest)+1)
	if !keepBackup {
		args = append(args, overwriteFlag)
	}
	return append(args, rest...)
}
