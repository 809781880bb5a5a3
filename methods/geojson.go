package methods

import (
	"github.com/GrainArc/GeoObjectServer/models"
	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog/log"
)

// GeoObjectsToGeoJSON 对象聚合转FeatureCollection，没有几何的对象跳过
func GeoObjectsToGeoJSON(objects []models.GeoObject) *geojson.FeatureCollection {
	features := geojson.NewFeatureCollection()
	for _, obj := range objects {
		feature := GeoObjectToFeature(obj)
		if feature == nil {
			continue
		}
		features.Append(feature)
	}
	return features
}

// GeoObjectToFeature 单个对象转Feature
func GeoObjectToFeature(obj models.GeoObject) *geojson.Feature {
	if obj.GeometryVersion == nil {
		return nil
	}
	geom, err := obj.GeometryVersion.Geometry()
	if err != nil {
		log.Warn().Err(err).Str("id", obj.ID.String()).Msg("几何解析失败")
		return nil
	}
	if geom == nil {
		return nil
	}

	feature := geojson.NewFeature(geom)
	feature.ID = obj.ID.String()
	properties := map[string]interface{}{
		"id":           obj.ID.String(),
		"name":         obj.Name,
		"version":      obj.GeometryVersion.Version,
		"area":         obj.GeometryVersion.AreaValue,
		"length":       obj.GeometryVersion.LengthValue,
		"input_links":  len(obj.InputTopologyLinks),
		"output_links": len(obj.OutputTopologyLinks),
		"aspects":      len(obj.Aspects),
	}
	if obj.GeoObjectInfo != nil {
		properties["full_name"] = obj.GeoObjectInfo.FullName
		properties["short_name"] = obj.GeoObjectInfo.ShortName
		var classifiers []string
		for _, c := range obj.GeoObjectInfo.GeoClassifiers {
			classifiers = append(classifiers, c.Name)
		}
		properties["classifiers"] = classifiers
	}
	feature.Properties = properties
	return feature
}
