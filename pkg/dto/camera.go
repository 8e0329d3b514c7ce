package dto

type CreateCameraRequest struct {
	ID            string `json:"id" binding:"required"`
	Name          string `json:"name" binding:"required"`
	URL           string `json:"url" binding:"required"`
	Area          [4]int `json:"area"`
	ReceiverEmail string `json:"receiver_email"`
}

type CameraResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	URL           string `json:"url"`
	Area          [4]int `json:"area"`
	ReceiverEmail string `json:"receiver_email"`
	Status        string `json:"status"`
	CreatedAt     string `json:"created_at"`
}

type CameraListResponse struct {
	Cameras []CameraResponse `json:"cameras"`
	Total   int              `json:"total"`
}

type ActiveCamerasResponse struct {
	Cameras []string `json:"cameras"`
	Total   int      `json:"total"`
}
