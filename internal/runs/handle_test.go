package runs

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	api "github.com/riskfabric/riskctl/api/v1alpha1"
)

var _ = Describe("handle", func() {
	It("captures the run id and type from a submission response", func() {
		h := NewHandle(&api.RunRef{RunId: 12, Status: api.RunStatusQueued}, api.RunTypeGeocode)
		Expect(h.Id).To(Equal(int64(12)))
		Expect(h.RunType).To(Equal(api.RunTypeGeocode))
	})

	Context("output refs", func() {
		type geocodeOutput struct {
			GeocodedCount int `json:"geocoded_count"`
			FailedCount   int `json:"failed_count"`
		}

		It("decodes the typed payload of a terminal run", func() {
			run := &api.Run{
				Id:     12,
				Status: api.RunStatusSucceeded,
				OutputRefs: map[string]any{
					"geocoded_count": 118,
					"failed_count":   2,
				},
			}

			out, err := DecodeOutputRefs[geocodeOutput](run)
			Expect(err).To(BeNil())
			Expect(out.GeocodedCount).To(Equal(118))
			Expect(out.FailedCount).To(Equal(2))
		})

		It("refuses to decode a run that is still pending", func() {
			run := &api.Run{Id: 12, Status: api.RunStatusRunning}
			_, err := DecodeOutputRefs[geocodeOutput](run)
			Expect(err).NotTo(BeNil())
		})
	})
})
