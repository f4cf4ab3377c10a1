package terabox

// apiResponse is the envelope every listing API answer shares.
type apiResponse struct {
	Errno  int    `json:"errno"`
	Errmsg string `json:"errmsg"`
}

type listResponse struct {
	apiResponse
	List []listEntry `json:"list"`
}

type listEntry struct {
	FSID           int64             `json:"fs_id"`
	ServerFilename string            `json:"server_filename"`
	Path           string            `json:"path"`
	IsDir          int               `json:"isdir"`
	Size           int64             `json:"size"`
	MD5            string            `json:"md5"`
	DLink          string            `json:"dlink"`
	Thumbs         map[string]string `json:"thumbs"`
}
