package shapelib

import v3 "github.com/deadsy/sdfx/vec/v3"

// xyz groups a flat coordinate list into points.
func xyz(coords ...float64) []v3.Vec {
	out := make([]v3.Vec, 0, len(coords)/3)
	for i := 0; i+2 < len(coords); i += 3 {
		out = append(out, v3.Vec{X: coords[i], Y: coords[i+1], Z: coords[i+2]})
	}
	return out
}

func single(key string, points []v3.Vec) Entry {
	return Entry{{Name: key, Points: points}}
}

// builtins returns the shape outlines the control kinds draw from.
// Point data captured from hand-modelled outlines; edit at your own
// risk, the loops are ordered.
func builtins() map[string]Entry {
	return map[string]Entry{
		"cross": single("cross", xyz(
			1, 0, 2, 1, 0, 1, 2, 0, 1, 2, 0, -1, 1, 0, -1, 1, 0, -2,
			-1, 0, -2, -1, 0, -1, -2, 0, -1, -2, 0, 1, -1, 0, 1, -1, 0, 2,
			1, 0, 2,
		)),
		"arrow": single("arrow", xyz(
			0, -2, -1, 0, 0, -1, 0, 0, -2, 0, 2, 0, 0, 0, 2, 0, 0, 1,
			0, -2, 1, 0, -2, -1,
		)),
		"cube": single("cube", xyz(
			-0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, -0.5, -0.5, 0.5, -0.5,
			-0.5, 0.5, 0.5, -0.5, -0.5, 0.5, -0.5, -0.5, -0.5, 0.5, -0.5, -0.5,
			0.5, -0.5, 0.5, -0.5, -0.5, 0.5, 0.5, -0.5, 0.5, 0.5, 0.5, 0.5,
			0.5, 0.5, -0.5, 0.5, -0.5, -0.5, -0.5, -0.5, -0.5, -0.5, 0.5, -0.5,
		)),
		"pin": single("pin", xyz(
			0, 0, 0, 0, 1.2, 0, 0, 1.6, -0.4, 0, 2, 0, 0, 1.6, 0.4, 0, 1.2, 0,
		)),
		"pinDouble": single("pinDouble", xyz(
			0, -1.9860073255814468, 0, 0, -1.489505494186085, 0.4965018313953617,
			0, -0.9930036627907234, 0, 0, -1.489505494186085, -0.4965018313953617,
			0, -1.9860073255814468, 0, 0, 1.9860073255814468, 0,
			0, 1.489505494186085, -0.4965018313953617, 0, 0.9930036627907234, 0,
			0, 1.489505494186085, 0.4965018313953617, 0, 1.9860073255814468, 0,
		)),
		"orient": single("orient", xyz(
			0.0959835, 0.604001, -0.0987656, 0.500783, 0.500458, -0.0987656,
			0.751175, 0.327886, -0.0987656, 0.751175, 0.327886, -0.0987656,
			0.751175, 0.327886, -0.336638, 0.751175, 0.327886, -0.336638,
			1.001567, 0, 0, 1.001567, 0, 0, 0.751175, 0.327886, 0.336638,
			0.751175, 0.327886, 0.336638, 0.751175, 0.327886, 0.0987656,
			0.751175, 0.327886, 0.0987656, 0.500783, 0.500458, 0.0987656,
			0.0959835, 0.604001, 0.0987656, 0.0959835, 0.604001, 0.0987656,
			0.0959835, 0.500458, 0.500783, 0.0959835, 0.327886, 0.751175,
			0.0959835, 0.327886, 0.751175, 0.336638, 0.327886, 0.751175,
			0.336638, 0.327886, 0.751175, 0, 0, 1.001567, 0, 0, 1.001567,
			-0.336638, 0.327886, 0.751175, -0.336638, 0.327886, 0.751175,
			-0.0959835, 0.327886, 0.751175, -0.0959835, 0.327886, 0.751175,
			-0.0959835, 0.500458, 0.500783, -0.0959835, 0.604001, 0.0987656,
			-0.0959835, 0.604001, 0.0987656, -0.500783, 0.500458, 0.0987656,
			-0.751175, 0.327886, 0.0987656, -0.751175, 0.327886, 0.0987656,
			-0.751175, 0.327886, 0.336638, -0.751175, 0.327886, 0.336638,
			-1.001567, 0, 0, -1.001567, 0, 0,
			-0.751175, 0.327886, -0.336638, -0.751175, 0.327886, -0.336638,
			-0.751175, 0.327886, -0.0987656, -0.751175, 0.327886, -0.0987656,
			-0.500783, 0.500458, -0.0987656, -0.0959835, 0.604001, -0.0987656,
			-0.0959835, 0.604001, -0.0987656, -0.0959835, 0.500458, -0.500783,
			-0.0959835, 0.327886, -0.751175, -0.0959835, 0.327886, -0.751175,
			-0.336638, 0.327886, -0.751175, -0.336638, 0.327886, -0.751175,
			0, 0, -1.001567, 0, 0, -1.001567,
			0.336638, 0.327886, -0.751175, 0.336638, 0.327886, -0.751175,
			0.0959835, 0.327886, -0.751175, 0.0959835, 0.327886, -0.751175,
			0.0959835, 0.500458, -0.500783, 0.0959835, 0.604001, -0.0987656,
		)),
		"gear": single("gear", xyz(
			0.00272859287881, -0.9807839393619999, -0.19508992135700004,
			0.00272859287881, -0.923878371716, -0.382682859899,
			0.0435272647635, -0.994432151318, -0.42039453983400005,
			0.0435272647635, -0.9020224809649999, -0.5932812094700001,
			0.00272859287881, -0.831468701363, -0.555569529535,
			0.00272859287881, -0.707106113434, -0.7071059942260001,
			0.0435272647635, -0.757857561112, -0.7689467668550001,
			0.0435272647635, -0.606321275235, -0.893309533597,
			0.00272859287881, -0.555569827557, -0.831468760969,
			0.00272859287881, -0.38268324732799996, -0.923878729345,
			0.0435272647635, -0.40590605139799996, -1.00043398142,
			0.0435272647635, -0.21831315755899997, -1.05733972788,
			0.00272859287881, -0.19509036839099997, -0.980784535409,
			0.00272859287881, -2.0861669997387922e-07, -0.99999934435,
			0.0435272647635, 0.007841132580800027, -1.07961422205,
			0.0435272647635, 0.20293128490400003, -1.06039959192,
			0.00272859287881, 0.19508993625600002, -0.9807847142230001,
			0.00272859287881, 0.382682919502, -0.9238791465770001,
			0.0435272647635, 0.420394599437, -0.994432926179,
			0.0435272647635, 0.593281388282, -0.902023196222,
			0.00272859287881, 0.555569648742, -0.8314694166200001,
			0.00272859287881, 0.707106173038, -0.707106769086,
			0.0435272647635, 0.7689469456670001, -0.757858216764,
			0.0435272647635, 0.8933097720140001, -0.6063218712820001,
			0.00272859287881, 0.8314689993850001, -0.555570423604,
			0.00272859287881, 0.9238789677620001, -0.38268378377100004,
			0.0435272647635, 1.0004341602300002, -0.40590658784000005,
			0.0435272647635, 1.0573400258999999, -0.21831361949600006,
			0.00272859287881, 0.980784773826, -0.19509081542600004,
			0.00272859287881, 0.99999958277, -6.258500900519284e-07,
			0.0435272647635, 1.0796144008600002, 0.007840688338999948,
			0.0435272647635, 1.0603998899500002, 0.20293092727499995,
			0.00272859287881, 0.980785012245, 0.19508960842999995,
			0.00272859287881, 0.923879384994, 0.38268265127999995,
			0.0435272647635, 0.99443304539, 0.420394331215,
			0.0435272647635, 0.902023255825, 0.593281149863,
			0.00272859287881, 0.831469595432, 0.555569410323,
			0.00272859287881, 0.707106888294, 0.707105934619,
			0.0435272647635, 0.757858335971, 0.768946707247,
			0.0435272647635, 0.60632187128, 0.8933095931989999,
			0.00272859287881, 0.555570423603, 0.8314688205709999,
			0.00272859287881, 0.382683694362, 0.9238787889469999,
			0.0435272647635, 0.40590649843200005, 1.0004339814199998,
			0.0435272647635, 0.21831347048200003, 1.05733984709,
			0.00272859287881, 0.19509066641300002, 0.9807845950109999,
			0.00272859287881, 4.3213320002725986e-07, 0.99999940395,
			0.0435272647635, -0.007840933278669974, 1.07961422205,
			0.0435272647635, -0.20293121039899997, 1.06039959192,
			0.00272859287881, -0.19508986175099996, 0.980784773825,
			0.00272859287881, -0.382682979107, 0.92387908697,
			0.0435272647635, -0.42039471864699995, 0.9944327473629999,
			0.0435272647635, -0.593281507493, 0.9020228981959999,
			0.00272859287881, -0.555569767952, 0.831469237803,
			0.00272859287881, -0.707106351853, 0.7071064710599999,
			0.0435272647635, -0.768947124482, 0.7578579187379999,
			0.0435272647635, -0.8933100104339999, 0.606321394442,
			0.00272859287881, -0.8314692378049999, 0.5555699467649999,
			0.00272859287881, -0.923879206181, 0.38268312811699995,
			0.0435272647635, -1.0004343986520001, 0.40590593218699994,
			0.0435272647635, -1.05734026432, 0.21831282973199995,
			0.00272859287881, -0.980785012246, 0.19509002566199996,
			0.00272859287881, -0.999999761582, -2.9802455005180015e-07,
			0.0435272647635, -1.0796144008600002, -0.007842143067550052,
			0.0435272647635, -1.06039857864, -0.20293177664400006,
			0.00272859287881, -0.9807839393619999, -0.19508992135700004,
		)),
	}
}
