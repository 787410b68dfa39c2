package relay

type payload struct {
	VisualData string `json:"visual_data"`
}

type sendRequest struct {
	EncryptedPayload payload `json:"encrypted_payload"`
}

type sendResponse struct {
	MsgID string `json:"msg_id"`
}

type errorResponse struct {
	Error string `json:"error"`
}
